package cli

import (
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/layout"
	"github.com/mkarlsen/biolens/pkg/view"
)

func explorerFixture(t *testing.T) ExplorerModel {
	t.Helper()

	nodes := []*graph.Node{
		{ID: "a", Title: "Microbial Growth", Category: graph.CategoryMicrobiology, Size: 15},
		{ID: "b", Title: "Root Orientation", Category: graph.CategoryPlantStudies, Size: 15},
	}
	edges := []graph.Edge{{Source: "a", Target: "b"}}

	state := view.New(nodes, edges, view.Options{
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
	m := NewExplorerModel(state)
	m.width = 100
	m.height = 30
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m ExplorerModel, msg tea.Msg) ExplorerModel {
	t.Helper()
	next, _ := m.Update(msg)
	em, ok := next.(ExplorerModel)
	if !ok {
		t.Fatalf("Update returned %T, want ExplorerModel", next)
	}
	return em
}

func TestExplorerTickAdvancesSimulation(t *testing.T) {
	m := explorerFixture(t)

	if !m.state.Simulating() {
		t.Fatal("force mode should start with a running simulation")
	}
	for i := 0; i < 2*layout.DefaultMaxTicks; i++ {
		m = update(t, m, tickMsg(time.Now()))
	}
	if m.state.Simulating() {
		t.Error("simulation still running after full tick budget")
	}
}

func TestExplorerSelectionCycles(t *testing.T) {
	m := explorerFixture(t)

	m = update(t, m, keyPress("tab"))
	if m.state.Hover() != "a" {
		t.Errorf("hover = %q, want %q", m.state.Hover(), "a")
	}
	m = update(t, m, keyPress("tab"))
	if m.state.Hover() != "b" {
		t.Errorf("hover = %q, want %q", m.state.Hover(), "b")
	}
	m = update(t, m, keyPress("tab"))
	if m.state.Hover() != "a" {
		t.Errorf("hover = %q after wrap, want %q", m.state.Hover(), "a")
	}
}

func TestExplorerOpenAndClosePanel(t *testing.T) {
	m := explorerFixture(t)

	m = update(t, m, keyPress("tab"))
	m = update(t, m, keyPress("enter"))
	if p := m.state.Panel(); p == nil || p.NodeID != "a" {
		t.Fatalf("panel = %+v, want node a", p)
	}

	m = update(t, m, keyPress("esc"))
	if m.state.Panel() != nil {
		t.Error("panel still open after esc")
	}
}

func TestExplorerGrabMovesNode(t *testing.T) {
	m := explorerFixture(t)

	m = update(t, m, keyPress("tab"))
	m = update(t, m, keyPress("g"))
	if !m.grabbed {
		t.Fatal("g did not grab the selected node")
	}

	n := m.selectedNode()
	before := n.Y
	m = update(t, m, keyPress("up"))
	if n.Y >= before {
		t.Errorf("node Y = %v after move up, want < %v", n.Y, before)
	}
	if n.FY == nil {
		t.Error("grabbed node is not pinned")
	}

	m = update(t, m, keyPress("g"))
	if m.grabbed {
		t.Error("second g did not release the node")
	}
	if n.FY == nil {
		t.Error("pin should persist after release")
	}
}

func TestExplorerCycleMode(t *testing.T) {
	m := explorerFixture(t)

	if m.state.Mode() != layout.ModeForce {
		t.Fatalf("initial mode = %q, want force", m.state.Mode())
	}
	m = update(t, m, keyPress("m"))
	if m.state.Mode() == layout.ModeForce {
		t.Error("m did not advance the layout mode")
	}
}

func TestExplorerCycleFilter(t *testing.T) {
	m := explorerFixture(t)

	m = update(t, m, keyPress("f"))
	if m.state.Filter() == graph.FilterAll {
		t.Error("f did not advance the filter")
	}
	if len(m.state.Nodes()) != 1 {
		t.Errorf("working set = %d nodes after category filter, want 1", len(m.state.Nodes()))
	}
}

func TestExplorerZoomChangesScale(t *testing.T) {
	m := explorerFixture(t)

	m = update(t, m, keyPress("+"))
	if m.state.Transform().Scale <= 1 {
		t.Errorf("scale = %v after zoom in, want > 1", m.state.Transform().Scale)
	}
}

func TestExplorerResizeRetargetsWorld(t *testing.T) {
	m := explorerFixture(t)
	before := m.state.Size()

	m = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 60})
	after := m.state.Size()
	if after == before {
		t.Error("window resize did not retarget the layout surface")
	}
	if after.Width != layout.DefaultSize.Width {
		t.Errorf("world width = %v, want %v", after.Width, layout.DefaultSize.Width)
	}
}

func TestExplorerViewRendersStatus(t *testing.T) {
	m := explorerFixture(t)

	out := m.View()
	if !strings.Contains(out, "filter") || !strings.Contains(out, "layout") {
		t.Error("view output missing status line")
	}
	if !strings.Contains(out, "2 nodes") {
		t.Error("view output missing node count")
	}
}
