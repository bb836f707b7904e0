package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkarlsen/biolens/pkg/cache"
	"github.com/mkarlsen/biolens/pkg/errors"
	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/layout"
	"github.com/mkarlsen/biolens/pkg/observability"
	"github.com/mkarlsen/biolens/pkg/render"
	"github.com/mkarlsen/biolens/pkg/source"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete fetch → adapt → layout → render pipeline.
func (r *Runner) Execute(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Fetch
	fetchStart := time.Now()
	records, fetchHit, err := r.FetchWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.FetchTime = time.Since(fetchStart)
	result.Stats.RecordCount = len(records)
	result.CacheInfo.FetchHit = fetchHit

	// Stage 2: Adapt and filter
	nodes, edges, diag := graph.Build(records)
	result.Diagnostics = diag
	result.Nodes, result.Edges = graph.Select(nodes, edges, opts.filter)
	result.Stats.NodeCount = len(result.Nodes)
	result.Stats.EdgeCount = len(result.Edges)
	result.GraphHash = r.graphHash(result.Nodes, result.Edges)

	r.Logger.Info("adapted experiments",
		"records", len(records),
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"dropped_edges", diag.DroppedEdges,
		"duration", result.Stats.FetchTime)

	// Stage 3: Layout
	layoutStart := time.Now()
	layoutHit, err := r.LayoutWithCacheInfo(ctx, result.Nodes, result.Edges, result.GraphHash, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"mode", opts.Mode,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Render
	renderStart := time.Now()
	result.Scene = render.BuildScene(result.Nodes, result.Edges, render.Options{Size: opts.Size()})
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Scene, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Stages
// =============================================================================

// FetchWithCacheInfo retrieves records with caching and reports cache hits.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, src source.Source, opts Options) ([]graph.Record, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	key := r.Keyer.DatasetKey(src.Name())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var records []graph.Record
			if err := json.Unmarshal(data, &records); err == nil {
				observability.Cache().OnCacheHit(ctx, key)
				return records, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}

	observability.Pipeline().OnFetchStart(ctx, src.Name())
	start := time.Now()
	records, err := src.Fetch(ctx)
	observability.Pipeline().OnFetchComplete(ctx, src.Name(), len(records), time.Since(start), err)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeNetwork, err, "fetch records from %s", src.Name())
	}

	if data, err := json.Marshal(records); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLDataset)
		observability.Cache().OnCacheSet(ctx, key, len(data))
	}
	return records, false, nil
}

// Fetch is a convenience wrapper that discards the cache hit info.
func (r *Runner) Fetch(ctx context.Context, src source.Source, opts Options) ([]graph.Record, error) {
	records, _, err := r.FetchWithCacheInfo(ctx, src, opts)
	return records, err
}

// LayoutWithCacheInfo positions the nodes in place, reusing cached positions
// when the same graph was laid out with the same options before.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, graphHash string, opts Options) (bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return false, err
	}
	r.applyLogger(&opts)

	key := r.Keyer.LayoutKey(graphHash, cache.LayoutKeyOpts{
		Mode:   opts.Mode,
		Filter: opts.Filter,
		Width:  opts.Width,
		Height: opts.Height,
		Seed:   opts.Seed,
	})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		if applyCachedPositions(nodes, data) {
			observability.Cache().OnCacheHit(ctx, key)
			return true, nil
		}
		// Stale or mismatched entry, recompute below.
	}

	observability.Pipeline().OnLayoutStart(ctx, opts.Mode, len(nodes))
	start := time.Now()
	err := layout.Compute(opts.mode, nodes, edges, opts.Size(), opts.Seed)
	observability.Pipeline().OnLayoutComplete(ctx, opts.Mode, time.Since(start), err)
	if err != nil {
		return false, err
	}

	if data, err := graph.MarshalGraph(graph.Graph{Nodes: nodes, Edges: edges}); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLLayout)
	}
	return false, nil
}

// RenderWithCacheInfo serializes the scene in every requested format.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, scene *render.Scene, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	sceneData, err := json.Marshal(scene)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize scene for cache key")
	}
	sceneHash := cache.Hash(sceneData)

	// Try to satisfy all formats from cache first.
	artifacts := make(map[string][]byte, len(opts.fmts))
	allCached := true
	for _, f := range opts.fmts {
		key := r.Keyer.SceneKey(sceneHash, cache.SceneKeyOpts{Format: string(f), Scale: opts.Scale})
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			artifacts[string(f)] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.fmts) {
		return artifacts, true, nil
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered := make(map[string][]byte, len(opts.fmts))
	for _, f := range opts.fmts {
		data, err := render.Render(ctx, scene, f, opts.Scale)
		if err != nil {
			observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, err
		}
		rendered[string(f)] = data
		key := r.Keyer.SceneKey(sceneHash, cache.SceneKeyOpts{Format: string(f), Scale: opts.Scale})
		_ = r.Cache.Set(ctx, key, data, cache.TTLScene)
	}
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)

	return rendered, false, nil
}

// =============================================================================
// Helpers
// =============================================================================

// graphHash fingerprints the filtered graph before layout. Positions are
// zeroed so the hash depends only on membership and identity fields.
func (r *Runner) graphHash(nodes []*graph.Node, edges []graph.Edge) string {
	type slim struct {
		ID       string         `json:"id"`
		Category graph.Category `json:"category"`
		Size     float64        `json:"size"`
		Title    string         `json:"title"`
	}
	fp := struct {
		Nodes []slim       `json:"nodes"`
		Edges []graph.Edge `json:"edges"`
	}{Nodes: make([]slim, 0, len(nodes)), Edges: edges}
	for _, n := range nodes {
		fp.Nodes = append(fp.Nodes, slim{ID: n.ID, Category: n.Category, Size: n.Size, Title: n.Title})
	}
	data, err := json.Marshal(fp)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// applyCachedPositions copies positions from a cached layout onto the live
// nodes. It reports false when the cached node set does not match.
func applyCachedPositions(nodes []*graph.Node, data []byte) bool {
	cached, err := graph.UnmarshalGraph(data)
	if err != nil || len(cached.Nodes) != len(nodes) {
		return false
	}
	byID := make(map[string]*graph.Node, len(cached.Nodes))
	for _, n := range cached.Nodes {
		byID[n.ID] = n
	}
	for _, n := range nodes {
		c, ok := byID[n.ID]
		if !ok {
			return false
		}
		n.X, n.Y = c.X, c.Y
		n.FX, n.FY = c.FX, c.FY
	}
	return true
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
