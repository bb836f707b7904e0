package view

import (
	"github.com/charmbracelet/log"

	"github.com/mkarlsen/biolens/pkg/errors"
	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/layout"
	"github.com/mkarlsen/biolens/pkg/render"
)

// ResetTicks is how many frame ticks the reset-view animation takes to glide
// the transform back to identity. At 60 fps this is roughly 400ms.
const ResetTicks = 24

// Options seeds a new state.
type Options struct {
	Filter graph.Filter
	Mode   layout.Mode
	Size   layout.Size
	Seed   uint64
	Logger *log.Logger
}

// State is the single owner of all mutable presentation state for one graph.
// It is not safe for concurrent use; one goroutine drives it with events and
// Step calls.
type State struct {
	allNodes []*graph.Node
	allEdges []graph.Edge

	filter graph.Filter
	mode   layout.Mode
	size   layout.Size
	seed   uint64
	logger *log.Logger

	// Filtered working set, shared pointers into allNodes.
	nodes []*graph.Node
	edges []graph.Edge

	sim       *layout.Simulation
	transform Transform
	resetLeft int

	hoverID string
	dragID  string
	panel   *Panel
}

// New builds a view state over a fully-adapted graph and runs the initial
// layout.
func New(nodes []*graph.Node, edges []graph.Edge, opts Options) *State {
	if opts.Filter == "" {
		opts.Filter = graph.FilterAll
	}
	if opts.Mode == "" {
		opts.Mode = layout.ModeForce
	}
	if opts.Size.Width == 0 || opts.Size.Height == 0 {
		opts.Size = layout.DefaultSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &State{
		allNodes:  nodes,
		allEdges:  edges,
		filter:    opts.Filter,
		mode:      opts.Mode,
		size:      opts.Size,
		seed:      opts.Seed,
		logger:    opts.Logger,
		transform: Identity(),
	}
	s.relayout()
	return s
}

// =============================================================================
// Accessors
// =============================================================================

func (s *State) Filter() graph.Filter { return s.filter }
func (s *State) Mode() layout.Mode    { return s.mode }
func (s *State) Size() layout.Size    { return s.size }
func (s *State) Transform() Transform { return s.transform }
func (s *State) Nodes() []*graph.Node { return s.nodes }
func (s *State) Edges() []graph.Edge  { return s.edges }
func (s *State) Panel() *Panel        { return s.panel }
func (s *State) Hover() string        { return s.hoverID }
func (s *State) Dragging() bool       { return s.dragID != "" }
func (s *State) Simulating() bool     { return s.sim != nil && !s.sim.Settled() }

// Scene builds the current frame with the active transform and hover styling
// applied.
func (s *State) Scene() *render.Scene {
	return render.BuildScene(s.nodes, s.edges, render.Options{
		Size:       s.size,
		HoverID:    s.hoverID,
		Scale:      s.transform.Scale,
		TranslateX: s.transform.TranslateX,
		TranslateY: s.transform.TranslateY,
	})
}

// =============================================================================
// Filter, mode, resize
// =============================================================================

// SetFilter switches the category filter and rebuilds the layout. A running
// simulation is halted before the new one starts.
func (s *State) SetFilter(f graph.Filter) {
	if f == s.filter {
		return
	}
	s.filter = f
	s.logger.Debug("filter changed", "filter", f)
	s.relayout()
}

// SetMode switches the layout mode and rebuilds the layout.
func (s *State) SetMode(m layout.Mode) {
	if m == s.mode {
		return
	}
	s.mode = m
	s.logger.Debug("layout mode changed", "mode", m)
	s.relayout()
}

// Resize retargets the drawing surface and re-runs the current layout against
// the new dimensions.
func (s *State) Resize(size layout.Size) {
	if size == s.size || size.Width <= 0 || size.Height <= 0 {
		return
	}
	s.size = size
	s.relayout()
}

// relayout recomputes the filtered subset and positions it. Only one
// simulation may be live at a time, so the previous one is dropped first. A
// node mid-drag keeps its pin across the rebuild; all other pins are cleared
// by the new layout.
func (s *State) relayout() {
	s.sim = nil
	s.nodes, s.edges = graph.Select(s.allNodes, s.allEdges, s.filter)

	var dragged *graph.Node
	var dragX, dragY float64
	if s.dragID != "" {
		if n := s.node(s.dragID); n != nil && n.Pinned() {
			dragged, dragX, dragY = n, *n.FX, *n.FY
		}
	}

	switch s.mode {
	case layout.ModeRadial:
		layout.Radial(s.nodes, s.size, s.seed)
	case layout.ModeHierarchical:
		layout.Hierarchical(s.nodes, s.size)
	default:
		s.sim = layout.NewSimulation(s.nodes, s.edges, s.size, s.seed)
	}

	if dragged != nil {
		dragged.Pin(dragX, dragY)
	}
}

// =============================================================================
// Frame stepping
// =============================================================================

// Step advances one frame: the reset animation first, then one simulation
// tick. It reports whether another frame is needed.
func (s *State) Step() bool {
	busy := false

	if s.resetLeft > 0 {
		s.resetLeft--
		if s.resetLeft == 0 || s.transform.near(Identity()) {
			s.transform = Identity()
			s.resetLeft = 0
		} else {
			// Constant-duration ease: cover the remaining distance in the
			// remaining ticks.
			s.transform = s.transform.lerp(Identity(), 1/float64(s.resetLeft+1))
			busy = true
		}
	}

	if s.sim != nil && s.sim.Step() {
		busy = true
	}

	return busy
}

// =============================================================================
// Gestures
// =============================================================================

// Zoom scales the view about the screen point (cx, cy), clamped to the
// allowed range. Zooming cancels a reset animation in flight.
func (s *State) Zoom(factor, cx, cy float64) {
	s.resetLeft = 0
	s.transform = s.transform.Zoom(factor, cx, cy)
}

// Pan shifts the view by a screen-space delta.
func (s *State) Pan(dx, dy float64) {
	s.resetLeft = 0
	s.transform = s.transform.Pan(dx, dy)
}

// ResetView starts animating the transform back to identity and hides the
// detail panel.
func (s *State) ResetView() {
	s.resetLeft = ResetTicks
	s.panel = nil
}

// StartDrag pins the node at its current position and heats the simulation so
// neighbors react while it is moved.
func (s *State) StartDrag(id string) error {
	n := s.node(id)
	if n == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "unknown node: %s", id)
	}
	s.dragID = id
	n.Pin(n.X, n.Y)
	if s.sim != nil {
		s.sim.SetAlphaTarget(layout.DragAlphaTarget)
		s.sim.Reheat(layout.DragAlphaTarget)
	}
	return nil
}

// Drag moves the dragged node's pin to the given world position.
func (s *State) Drag(x, y float64) {
	if s.dragID == "" {
		return
	}
	if n := s.node(s.dragID); n != nil {
		n.Pin(x, y)
	}
}

// EndDrag cools the simulation back down. The node stays pinned where it was
// released.
func (s *State) EndDrag() {
	if s.dragID == "" {
		return
	}
	s.dragID = ""
	if s.sim != nil {
		s.sim.SetAlphaTarget(0)
	}
}

// SetHover marks the node under the pointer. Empty clears it. Hover is purely
// visual and touches no other state.
func (s *State) SetHover(id string) {
	s.hoverID = id
}

// Click opens the detail panel for a node.
func (s *State) Click(id string) error {
	n := s.node(id)
	if n == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "unknown node: %s", id)
	}
	s.panel = buildPanel(n)
	return nil
}

// ClosePanel hides the detail panel.
func (s *State) ClosePanel() {
	s.panel = nil
}

// NodeAt returns the topmost node whose disc contains the screen point, or
// nil. Later nodes paint on top, so the scan runs back to front.
func (s *State) NodeAt(sx, sy float64) *graph.Node {
	wx, wy := s.transform.Invert(sx, sy)
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		dx, dy := n.X-wx, n.Y-wy
		if dx*dx+dy*dy <= n.Size*n.Size {
			return n
		}
	}
	return nil
}

func (s *State) node(id string) *graph.Node {
	for _, n := range s.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
