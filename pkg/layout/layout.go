// Package layout positions graph nodes inside a viewport. Three modes are
// supported: a force-directed simulation and two deterministic geometric
// arrangements (radial and hierarchical). The deterministic modes pin every
// node they place so a subsequent simulation pass cannot move them.
package layout

import (
	"math"
	"math/rand/v2"

	"github.com/mkarlsen/biolens/pkg/errors"
	"github.com/mkarlsen/biolens/pkg/graph"
)

// =============================================================================
// Modes
// =============================================================================

// Mode selects the positioning strategy.
type Mode string

const (
	ModeForce        Mode = "force"
	ModeRadial       Mode = "radial"
	ModeHierarchical Mode = "hierarchical"
)

// Modes lists every supported layout mode.
var Modes = []Mode{ModeForce, ModeRadial, ModeHierarchical}

// ParseMode validates a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if s == string(m) {
			return m, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidLayout, "unknown layout mode: %s", s)
}

// =============================================================================
// Viewport
// =============================================================================

// Size is the viewport the layout targets, in scene units.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// DefaultSize matches the canvas the web frontends historically used.
var DefaultSize = Size{Width: 1200, Height: 800}

// Center returns the viewport midpoint.
func (s Size) Center() (float64, float64) {
	return s.Width / 2, s.Height / 2
}

// =============================================================================
// Deterministic layouts
// =============================================================================

const (
	// RadialBaseDistance is the minimum distance from the viewport center at
	// which radial mode places a node.
	RadialBaseDistance = 200.0

	// RadialJitter is the width of the random band added on top of
	// RadialBaseDistance so same-category nodes do not stack exactly.
	RadialJitter = 100.0
)

// Radial arranges nodes on spokes around the viewport center, one spoke per
// category in first-seen order. Every node on a spoke shares its category's
// angle and sits at a seeded random distance in
// [RadialBaseDistance, RadialBaseDistance+RadialJitter). All placed nodes are
// pinned.
func Radial(nodes []*graph.Node, size Size, seed uint64) {
	cats := categoryOrder(nodes)
	if len(cats) == 0 {
		return
	}
	cx, cy := size.Center()
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	step := 2 * math.Pi / float64(len(cats))
	for _, n := range nodes {
		angle := step * float64(cats[n.Category])
		dist := RadialBaseDistance + rng.Float64()*RadialJitter
		n.Pin(cx+dist*math.Cos(angle), cy+dist*math.Sin(angle))
	}
}

// Hierarchical arranges nodes in one column per category, categories in
// first-seen order. Column k of K sits at x = width/(K+1)*(k+1); within a
// column the m-th of M nodes sits at y = height/(M+1)*(m+1). All placed nodes
// are pinned.
func Hierarchical(nodes []*graph.Node, size Size) {
	cats := categoryOrder(nodes)
	if len(cats) == 0 {
		return
	}

	perColumn := make(map[graph.Category]int, len(cats))
	for _, n := range nodes {
		perColumn[n.Category]++
	}

	colStep := size.Width / float64(len(cats)+1)
	rowIdx := make(map[graph.Category]int, len(cats))
	for _, n := range nodes {
		x := colStep * float64(cats[n.Category]+1)
		rowStep := size.Height / float64(perColumn[n.Category]+1)
		y := rowStep * float64(rowIdx[n.Category]+1)
		rowIdx[n.Category]++
		n.Pin(x, y)
	}
}

// categoryOrder maps each category present in nodes to its first-seen index.
func categoryOrder(nodes []*graph.Node) map[graph.Category]int {
	order := make(map[graph.Category]int)
	for _, n := range nodes {
		if _, ok := order[n.Category]; !ok {
			order[n.Category] = len(order)
		}
	}
	return order
}

// =============================================================================
// One-shot entry point
// =============================================================================

// DefaultMaxTicks bounds a one-shot force simulation. With the default alpha
// schedule the simulation settles on its own just before this limit.
const DefaultMaxTicks = 300

// Compute runs the selected layout to completion, mutating node positions in
// place. Force mode runs a fresh simulation until it settles; the geometric
// modes place and pin nodes in a single pass.
func Compute(mode Mode, nodes []*graph.Node, edges []graph.Edge, size Size, seed uint64) error {
	switch mode {
	case ModeForce:
		sim := NewSimulation(nodes, edges, size, seed)
		sim.Run(DefaultMaxTicks)
		return nil
	case ModeRadial:
		Radial(nodes, size, seed)
		return nil
	case ModeHierarchical:
		Hierarchical(nodes, size)
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidLayout, "unknown layout mode: %s", string(mode))
	}
}
