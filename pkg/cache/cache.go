// Package cache provides content-addressed caching for the biolens pipeline.
//
// The pipeline caches three kinds of artifacts, each with its own TTL:
//   - dataset: normalized experiment records fetched from a source
//   - layout: positioned node sets for a (graph, filter, mode, viewport) tuple
//   - scene: rendered artifacts (SVG, PNG, DOT, JSON) for a layout
//
// Backends:
//   - FileCache: directory-based cache for CLI usage
//   - RedisCache: Redis-backed cache for server deployments
//   - NullCache: disabled caching (testing, --no-cache)
package cache

import (
	"context"
	"time"
)

// TTLs for each artifact kind. Datasets change when upstream data changes,
// layouts and scenes are pure functions of their inputs and can live longer.
const (
	TTLDataset = 6 * time.Hour
	TTLLayout  = 7 * 24 * time.Hour
	TTLScene   = 7 * 24 * time.Hour
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value. The second return is true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// =============================================================================
// Keyer - Cache Key Generation
// =============================================================================

// LayoutKeyOpts are the options that distinguish layout cache entries.
type LayoutKeyOpts struct {
	Mode   string
	Filter string
	Width  float64
	Height float64
	Seed   uint64
}

// SceneKeyOpts are the options that distinguish rendered scene cache entries.
type SceneKeyOpts struct {
	Format string
	Scale  float64
}

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	// DatasetKey generates a key for a normalized dataset fetched from source.
	DatasetKey(source string) string

	// LayoutKey generates a key for a computed layout.
	// graphHash is the content hash of the built node/edge sets.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// SceneKey generates a key for a rendered artifact.
	// layoutHash is the content hash of the serialized layout.
	SceneKey(layoutHash string, opts SceneKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DatasetKey generates a key for a normalized dataset.
func (k *DefaultKeyer) DatasetKey(source string) string {
	return hashKey("dataset", source)
}

// LayoutKey generates a key for a computed layout.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// SceneKey generates a key for a rendered artifact.
func (k *DefaultKeyer) SceneKey(layoutHash string, opts SceneKeyOpts) string {
	return hashKey("scene", layoutHash, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)
