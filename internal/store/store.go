// Package store provides the experiment record backends the biolens server
// reads from: a JSON file (with change watching) or a MongoDB collection.
package store

import (
	"context"

	"github.com/mkarlsen/biolens/pkg/graph"
)

// Store yields the raw experiment records a server instance serves.
type Store interface {
	// Load returns all records. Records without an ID are assigned one, so
	// downstream adapters always see usable identities.
	Load(ctx context.Context) ([]graph.Record, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
