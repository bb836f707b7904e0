// Package source fetches raw experiment records from a backing service or
// any other provider that can be expressed as a fetch function.
package source

import (
	"context"

	"github.com/mkarlsen/biolens/pkg/graph"
)

// Source yields raw experiment records ready for graph.Build.
type Source interface {
	// Name identifies the source in logs and cache keys.
	Name() string

	// Fetch retrieves all records. Implementations honor ctx cancellation.
	Fetch(ctx context.Context) ([]graph.Record, error)
}

// Func adapts a plain function into a Source.
type Func struct {
	ID string
	Fn func(ctx context.Context) ([]graph.Record, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Fetch(ctx context.Context) ([]graph.Record, error) { return f.Fn(ctx) }
