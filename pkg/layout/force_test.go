package layout

import (
	"math"
	"testing"

	"github.com/mkarlsen/biolens/pkg/graph"
)

func simFixture() ([]*graph.Node, []graph.Edge) {
	nodes := []*graph.Node{
		testNode("a", graph.CategoryMicrobiology),
		testNode("b", graph.CategoryPlantStudies),
		testNode("c", graph.CategoryHumanStudies),
	}
	edges := []graph.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
	}
	return nodes, edges
}

func TestSimulationSettles(t *testing.T) {
	nodes, edges := simFixture()
	sim := NewSimulation(nodes, edges, DefaultSize, 1)

	// The alpha schedule reaches the cutoff at roughly DefaultMaxTicks; leave
	// slack for floating point drift.
	budget := DefaultMaxTicks + 10
	ticks := 0
	for sim.Step() {
		ticks++
		if ticks > budget {
			t.Fatalf("simulation did not settle within %d ticks", budget)
		}
	}
	if !sim.Settled() {
		t.Error("Settled() = false after Step returned false")
	}
	if sim.Step() {
		t.Error("settled simulation should not report further work")
	}
}

func TestSimulationSeparatesNodes(t *testing.T) {
	nodes, edges := simFixture()
	sim := NewSimulation(nodes, edges, DefaultSize, 1)
	sim.Run(DefaultMaxTicks)

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			dist := math.Hypot(nodes[i].X-nodes[j].X, nodes[i].Y-nodes[j].Y)
			minDist := nodes[i].Size + nodes[j].Size
			if dist < minDist {
				t.Errorf("nodes %s and %s overlap after settling: dist %v < %v",
					nodes[i].ID, nodes[j].ID, dist, minDist)
			}
		}
	}
}

func TestSimulationClearsPins(t *testing.T) {
	nodes, edges := simFixture()
	nodes[0].Pin(100, 100)
	NewSimulation(nodes, edges, DefaultSize, 1)
	if nodes[0].Pinned() {
		t.Error("pins should be cleared when a simulation starts")
	}
}

func TestSimulationHonorsPin(t *testing.T) {
	nodes, edges := simFixture()
	sim := NewSimulation(nodes, edges, DefaultSize, 1)
	nodes[0].Pin(300, 300)
	sim.Run(DefaultMaxTicks)

	if nodes[0].X != 300 || nodes[0].Y != 300 {
		t.Errorf("pinned node moved to (%v, %v), want (300, 300)", nodes[0].X, nodes[0].Y)
	}
}

func TestSimulationAlphaTargetKeepsRunning(t *testing.T) {
	nodes, edges := simFixture()
	sim := NewSimulation(nodes, edges, DefaultSize, 1)
	sim.SetAlphaTarget(DragAlphaTarget)

	for i := 0; i < 2*DefaultMaxTicks; i++ {
		if !sim.Step() {
			t.Fatalf("simulation stopped at tick %d despite positive alpha target", i)
		}
	}
	if sim.Alpha() < DragAlphaTarget*0.9 {
		t.Errorf("alpha = %v, want near target %v", sim.Alpha(), DragAlphaTarget)
	}

	// Releasing the target lets the simulation cool down and stop.
	sim.SetAlphaTarget(0)
	ticks := 0
	for sim.Step() {
		ticks++
		if ticks > DefaultMaxTicks+10 {
			t.Fatal("simulation did not cool down after alpha target reset")
		}
	}
}

func TestSimulationReheat(t *testing.T) {
	nodes, edges := simFixture()
	sim := NewSimulation(nodes, edges, DefaultSize, 1)
	sim.Run(DefaultMaxTicks + 10)
	if !sim.Settled() {
		t.Fatal("simulation should settle within the tick budget")
	}

	sim.Reheat(0.5)
	if sim.Settled() {
		t.Error("reheated simulation should not be settled")
	}
	if !sim.Step() {
		t.Error("reheated simulation should keep stepping")
	}
}

func TestSimulationPhyllotaxisSeeding(t *testing.T) {
	nodes, edges := simFixture()
	NewSimulation(nodes, edges, DefaultSize, 1)

	cx, cy := DefaultSize.Center()
	seen := make(map[[2]float64]bool)
	for i, n := range nodes {
		if n.X == 0 && n.Y == 0 {
			t.Errorf("node %d left at origin after seeding", i)
		}
		if math.Hypot(n.X-cx, n.Y-cy) > initialRadius*math.Sqrt(0.5+float64(len(nodes))) {
			t.Errorf("node %d seeded too far from center: (%v, %v)", i, n.X, n.Y)
		}
		key := [2]float64{n.X, n.Y}
		if seen[key] {
			t.Errorf("node %d seeded on top of another node", i)
		}
		seen[key] = true
	}
}

func TestSimulationEmpty(t *testing.T) {
	sim := NewSimulation(nil, nil, DefaultSize, 1)
	sim.Run(DefaultMaxTicks) // must not panic
}
