package layout

import (
	"math"
	"math/rand/v2"

	"github.com/mkarlsen/biolens/pkg/graph"
)

// =============================================================================
// Tuning
// =============================================================================

const (
	// LinkDistance is the rest length of every edge spring.
	LinkDistance = 100.0

	// ChargeStrength is the pairwise repulsion applied between all nodes.
	// Negative values repel.
	ChargeStrength = -300.0

	// CollidePadding is added to each node's radius when resolving overlaps.
	CollidePadding = 5.0

	// DragAlphaTarget keeps the simulation warm while a drag gesture is
	// active so surrounding nodes keep reacting to the dragged one.
	DragAlphaTarget = 0.3

	alphaInitial  = 1.0
	alphaMin      = 0.001
	velocityDecay = 0.6 // fraction of velocity retained per tick

	// Clamps for the repulsion denominator so near-coincident nodes do not
	// receive unbounded forces.
	distanceMin2 = 1.0

	// Phyllotaxis spread for initial placement.
	initialRadius = 10.0
)

// alphaDecay cools the simulation from alphaInitial to alphaMin in roughly
// 300 ticks.
var alphaDecay = 1 - math.Pow(alphaMin, 1.0/300)

// initialAngle is the golden angle, used for phyllotaxis seeding.
var initialAngle = math.Pi * (3 - math.Sqrt(5))

// =============================================================================
// Simulation
// =============================================================================

type simLink struct {
	source, target int
	strength       float64
	bias           float64
}

// Simulation is a force-directed layout stepped one tick at a time. It is not
// safe for concurrent use; callers drive it from a single goroutine, typically
// a frame ticker.
type Simulation struct {
	nodes []*graph.Node
	links []simLink
	vx    []float64
	vy    []float64

	alpha       float64
	alphaTarget float64
	cx, cy      float64
	rng         *rand.Rand
}

// NewSimulation builds a simulation over the given nodes and edges. All
// explicit pins are cleared; a caller that needs a pin to survive a restart
// (an in-progress drag) re-pins after construction. Nodes without a position
// are seeded on a phyllotaxis spiral around the viewport center so the first
// ticks do not explode.
func NewSimulation(nodes []*graph.Node, edges []graph.Edge, size Size, seed uint64) *Simulation {
	s := &Simulation{
		nodes: nodes,
		vx:    make([]float64, len(nodes)),
		vy:    make([]float64, len(nodes)),
		alpha: alphaInitial,
		rng:   rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
	}
	s.cx, s.cy = size.Center()

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		n.Unpin()
		if n.X == 0 && n.Y == 0 {
			radius := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			n.X = s.cx + radius*math.Cos(angle)
			n.Y = s.cy + radius*math.Sin(angle)
		}
		index[n.ID] = i
	}

	degree := make([]int, len(nodes))
	for _, e := range edges {
		si, ok := index[e.Source]
		if !ok {
			continue
		}
		ti, ok := index[e.Target]
		if !ok {
			continue
		}
		degree[si]++
		degree[ti]++
		s.links = append(s.links, simLink{source: si, target: ti})
	}
	for i := range s.links {
		l := &s.links[i]
		l.strength = 1 / float64(min(degree[l.source], degree[l.target]))
		l.bias = float64(degree[l.source]) / float64(degree[l.source]+degree[l.target])
	}
	return s
}

// Alpha reports the current simulation temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlphaTarget changes the temperature the simulation decays toward. Drag
// gestures raise it to DragAlphaTarget and restore it to zero on release.
func (s *Simulation) SetAlphaTarget(target float64) { s.alphaTarget = target }

// Reheat raises the temperature back to at least alpha, restarting motion
// without rebuilding the simulation.
func (s *Simulation) Reheat(alpha float64) {
	if alpha > s.alpha {
		s.alpha = alpha
	}
}

// Settled reports whether the simulation has cooled below its minimum
// temperature and stopped moving nodes.
func (s *Simulation) Settled() bool { return s.alpha < alphaMin }

// Step advances the simulation one tick and reports whether further ticks
// would still move nodes. A positive alpha target keeps it running
// indefinitely.
func (s *Simulation) Step() bool {
	if s.Settled() && s.alphaTarget == 0 {
		return false
	}
	s.alpha += (s.alphaTarget - s.alpha) * alphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyCenter()
	s.applyCollide()
	s.integrate()

	return !s.Settled() || s.alphaTarget > 0
}

// Run steps the simulation until it settles or maxTicks elapses.
func (s *Simulation) Run(maxTicks int) {
	for i := 0; i < maxTicks && s.Step(); i++ {
	}
}

// =============================================================================
// Forces
// =============================================================================

// applyLinks pulls each edge toward its rest length. The bias splits the
// correction so low-degree endpoints move more than hubs.
func (s *Simulation) applyLinks() {
	for _, l := range s.links {
		src, tgt := s.nodes[l.source], s.nodes[l.target]
		x := tgt.X + s.vx[l.target] - src.X - s.vx[l.source]
		y := tgt.Y + s.vy[l.target] - src.Y - s.vy[l.source]
		if x == 0 && y == 0 {
			x, y = s.jiggle(), s.jiggle()
		}
		dist := math.Hypot(x, y)
		k := (dist - LinkDistance) / dist * s.alpha * l.strength
		x *= k
		y *= k
		s.vx[l.target] -= x * l.bias
		s.vy[l.target] -= y * l.bias
		s.vx[l.source] += x * (1 - l.bias)
		s.vy[l.source] += y * (1 - l.bias)
	}
}

// applyCharge applies pairwise many-body repulsion scaled by alpha.
func (s *Simulation) applyCharge() {
	for i := 0; i < len(s.nodes); i++ {
		for j := i + 1; j < len(s.nodes); j++ {
			x := s.nodes[j].X - s.nodes[i].X
			y := s.nodes[j].Y - s.nodes[i].Y
			if x == 0 && y == 0 {
				x, y = s.jiggle(), s.jiggle()
			}
			l2 := x*x + y*y
			if l2 < distanceMin2 {
				l2 = distanceMin2
			}
			w := ChargeStrength * s.alpha / l2
			s.vx[i] -= x * w
			s.vy[i] -= y * w
			s.vx[j] += x * w
			s.vy[j] += y * w
		}
	}
}

// applyCenter translates the whole graph so its mean position sits on the
// viewport center. Pins are re-asserted during integration.
func (s *Simulation) applyCenter() {
	if len(s.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range s.nodes {
		sx += n.X
		sy += n.Y
	}
	sx = sx/float64(len(s.nodes)) - s.cx
	sy = sy/float64(len(s.nodes)) - s.cy
	for _, n := range s.nodes {
		n.X -= sx
		n.Y -= sy
	}
}

// applyCollide separates overlapping nodes, treating each as a disc of radius
// size+CollidePadding. Heavier (larger) nodes absorb less of the correction.
func (s *Simulation) applyCollide() {
	for i := 0; i < len(s.nodes); i++ {
		ri := s.nodes[i].Size + CollidePadding
		xi := s.nodes[i].X + s.vx[i]
		yi := s.nodes[i].Y + s.vy[i]
		for j := i + 1; j < len(s.nodes); j++ {
			rj := s.nodes[j].Size + CollidePadding
			x := xi - (s.nodes[j].X + s.vx[j])
			y := yi - (s.nodes[j].Y + s.vy[j])
			r := ri + rj
			l2 := x*x + y*y
			if l2 >= r*r {
				continue
			}
			if x == 0 && y == 0 {
				x, y = s.jiggle(), s.jiggle()
				l2 = x*x + y*y
			}
			dist := math.Sqrt(l2)
			k := (r - dist) / dist
			x *= k
			y *= k
			wi := rj * rj / (ri*ri + rj*rj)
			s.vx[i] += x * wi
			s.vy[i] += y * wi
			s.vx[j] -= x * (1 - wi)
			s.vy[j] -= y * (1 - wi)
		}
	}
}

// integrate folds velocities into positions, then clamps pinned nodes back to
// their fixed coordinates.
func (s *Simulation) integrate() {
	for i, n := range s.nodes {
		if n.Pinned() {
			n.X = *n.FX
			n.Y = *n.FY
			s.vx[i] = 0
			s.vy[i] = 0
			continue
		}
		s.vx[i] *= velocityDecay
		s.vy[i] *= velocityDecay
		n.X += s.vx[i]
		n.Y += s.vy[i]
	}
}

// jiggle breaks exact coincidence with a tiny deterministic offset.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
