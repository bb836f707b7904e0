// Package pipeline provides the core visualization pipeline for biolens.
//
// This package implements the complete fetch → adapt → layout → render
// pipeline that is shared by the CLI, the HTTP server, and the interactive
// explorer. Centralizing it keeps behavior consistent across entry points.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Fetch: Retrieve raw experiment records from a source
//  2. Adapt: Normalize records into a node/edge graph and apply the filter
//  3. Layout: Position the filtered graph with the selected layout mode
//  4. Render: Serialize the resulting scene in the requested formats
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Filter:  "microbiology",
//	    Mode:    "force",
//	    Formats: []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, src, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/layout"
	"github.com/mkarlsen/biolens/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Server, and Explorer
// =============================================================================

const (
	// DefaultWidth is the default viewport width in scene units.
	DefaultWidth = 1200.0

	// DefaultHeight is the default viewport height in scene units.
	DefaultHeight = 800.0

	// DefaultSeed is the default random seed for reproducible layouts.
	DefaultSeed = uint64(42)

	// DefaultScale is the default raster scale factor.
	DefaultScale = render.DefaultPNGScale
)

// DefaultMode is the default layout mode.
const DefaultMode = string(layout.ModeForce)

// DefaultFormat is the default output format.
const DefaultFormat = string(render.FormatSVG)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Fetch options
	Filter  string `json:"filter,omitempty"`
	Refresh bool   `json:"refresh,omitempty"`

	// Layout options
	Mode   string  `json:"mode,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Seed   uint64  `json:"seed,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`

	// Parsed forms, populated during validation.
	filter graph.Filter
	mode   layout.Mode
	fmts   []render.Format
}

// ValidateAndSetDefaults checks all fields and applies defaults. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	f, err := graph.ParseFilter(o.Filter)
	if err != nil {
		return err
	}
	o.filter = f
	o.Filter = string(f)

	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	m, err := layout.ParseMode(o.Mode)
	if err != nil {
		return err
	}
	o.mode = m

	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.fmts = o.fmts[:0]
	for _, s := range o.Formats {
		f, err := render.ParseFormat(s)
		if err != nil {
			return err
		}
		o.fmts = append(o.fmts, f)
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// Size returns the viewport the options describe.
func (o *Options) Size() layout.Size {
	return layout.Size{Width: o.Width, Height: o.Height}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Nodes and Edges are the filtered, laid-out graph.
	Nodes []*graph.Node
	Edges []graph.Edge

	// Diagnostics carries adapter data-quality counters.
	Diagnostics graph.Diagnostics

	// GraphHash is the content hash of the filtered graph before layout.
	GraphHash string

	// Scene is the styled drawing all artifacts were rendered from.
	Scene *render.Scene

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordCount int
	NodeCount   int
	EdgeCount   int
	FetchTime   time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FetchHit  bool // Whether records came from cache
	LayoutHit bool // Whether positions came from cache
	RenderHit bool // Whether all artifacts came from cache
}
