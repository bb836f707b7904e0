package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/layout"
	"github.com/mkarlsen/biolens/pkg/view"
)

// frameRate drives the simulation and reset animation.
const frameRate = 30

// panelWidth is the width of the detail sidebar in cells.
const panelWidth = 34

// tickMsg advances the simulation one step.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// =============================================================================
// Key Bindings
// =============================================================================

type keyMap struct {
	Pan     key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Next    key.Binding
	Prev    key.Binding
	Open    key.Binding
	Grab    key.Binding
	Filter  key.Binding
	Mode    key.Binding
	Reset   key.Binding
	Close   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Pan:     key.NewBinding(key.WithKeys("up", "down", "left", "right", "k", "j", "h", "l"), key.WithHelp("↑↓←→", "pan / move node")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next node")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous node")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "details")),
		Grab:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "grab/release node")),
		Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle filter")),
		Mode:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "cycle layout")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset view")),
		Close:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close panel")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pan, k.ZoomIn, k.Next, k.Open, k.Grab, k.Filter, k.Mode, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pan, k.ZoomIn, k.ZoomOut, k.Reset},
		{k.Next, k.Prev, k.Open, k.Grab, k.Close},
		{k.Filter, k.Mode, k.Help, k.Quit},
	}
}

// =============================================================================
// ExplorerModel
// =============================================================================

// ExplorerModel is the bubbletea model hosting an interactive graph view.
type ExplorerModel struct {
	state *view.State
	keys  keyMap
	help  help.Model

	width  int
	height int

	// selected is the index of the keyboard-selected node within the
	// working set, or -1 when nothing is selected.
	selected int
	grabbed  bool
}

// NewExplorerModel creates an explorer over a prepared graph.
func NewExplorerModel(state *view.State) ExplorerModel {
	return ExplorerModel{
		state:    state,
		keys:     newKeyMap(),
		help:     help.New(),
		selected: -1,
	}
}

func (m ExplorerModel) Init() tea.Cmd {
	return tickCmd()
}

func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.state.Step()
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// Terminal cells are roughly twice as tall as wide, so match the
		// world aspect to the drawable canvas rather than the cell grid.
		w := layout.DefaultSize.Width
		h := w * 2 * float64(m.canvasHeight()) / float64(m.canvasWidth())
		m.state.Resize(layout.Size{Width: w, Height: h})

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m ExplorerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.grabbed {
			m.state.EndDrag()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pan):
		return m.handleArrow(msg.String()), nil

	case key.Matches(msg, m.keys.ZoomIn):
		m.state.Zoom(view.ZoomStep, m.canvasCenterX(), m.canvasCenterY())

	case key.Matches(msg, m.keys.ZoomOut):
		m.state.Zoom(1/view.ZoomStep, m.canvasCenterX(), m.canvasCenterY())

	case key.Matches(msg, m.keys.Next):
		m = m.moveSelection(1)

	case key.Matches(msg, m.keys.Prev):
		m = m.moveSelection(-1)

	case key.Matches(msg, m.keys.Open):
		if n := m.selectedNode(); n != nil {
			_ = m.state.Click(n.ID) // stale selection
		}

	case key.Matches(msg, m.keys.Grab):
		m = m.toggleGrab()

	case key.Matches(msg, m.keys.Filter):
		m = m.cycleFilter()

	case key.Matches(msg, m.keys.Mode):
		m = m.cycleMode()

	case key.Matches(msg, m.keys.Reset):
		m.state.ResetView()

	case key.Matches(msg, m.keys.Close):
		m.state.ClosePanel()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// handleArrow pans the viewport, or moves the grabbed node.
func (m ExplorerModel) handleArrow(k string) ExplorerModel {
	dx, dy := 0.0, 0.0
	switch k {
	case "up", "k":
		dy = 1
	case "down", "j":
		dy = -1
	case "left", "h":
		dx = 1
	case "right", "l":
		dx = -1
	}

	if m.grabbed {
		if n := m.selectedNode(); n != nil {
			step := m.state.Size().Width / float64(m.canvasWidth())
			m.state.Drag(n.X-dx*step, n.Y-dy*step)
		}
		return m
	}

	panStep := m.state.Size().Width / float64(m.canvasWidth()) * 2
	m.state.Pan(dx*panStep*m.state.Transform().Scale, dy*panStep*m.state.Transform().Scale)
	return m
}

// moveSelection cycles the keyboard selection through the working set and
// mirrors it into the hover state.
func (m ExplorerModel) moveSelection(delta int) ExplorerModel {
	nodes := m.state.Nodes()
	if len(nodes) == 0 {
		m.selected = -1
		m.state.SetHover("")
		return m
	}
	if m.grabbed {
		return m
	}

	m.selected = (m.selected + delta + len(nodes)) % len(nodes)
	m.state.SetHover(nodes[m.selected].ID)
	return m
}

func (m ExplorerModel) toggleGrab() ExplorerModel {
	if m.grabbed {
		m.state.EndDrag()
		m.grabbed = false
		return m
	}
	n := m.selectedNode()
	if n == nil {
		return m
	}
	if err := m.state.StartDrag(n.ID); err == nil {
		m.grabbed = true
	}
	return m
}

func (m ExplorerModel) cycleFilter() ExplorerModel {
	if m.grabbed {
		return m
	}
	filters := []graph.Filter{graph.FilterAll}
	for _, c := range graph.Categories {
		filters = append(filters, graph.Filter(c))
	}
	cur := m.state.Filter()
	for i, f := range filters {
		if f == cur {
			m.state.SetFilter(filters[(i+1)%len(filters)])
			break
		}
	}
	m.selected = -1
	m.state.SetHover("")
	return m
}

func (m ExplorerModel) cycleMode() ExplorerModel {
	cur := m.state.Mode()
	for i, mode := range layout.Modes {
		if mode == cur {
			m.state.SetMode(layout.Modes[(i+1)%len(layout.Modes)])
			break
		}
	}
	return m
}

func (m ExplorerModel) selectedNode() *graph.Node {
	nodes := m.state.Nodes()
	if m.selected < 0 || m.selected >= len(nodes) {
		return nil
	}
	return nodes[m.selected]
}

// =============================================================================
// View
// =============================================================================

func (m ExplorerModel) canvasWidth() int {
	w := m.width - panelWidth - 3
	if w < 20 {
		w = 20
	}
	return w
}

func (m ExplorerModel) canvasHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m ExplorerModel) canvasCenterX() float64 {
	return m.state.Size().Width / 2
}

func (m ExplorerModel) canvasCenterY() float64 {
	return m.state.Size().Height / 2
}

func (m ExplorerModel) View() string {
	canvas := m.renderCanvas()
	sidebar := m.renderSidebar()

	body := lipgloss.JoinHorizontal(lipgloss.Top, canvas, " ", sidebar)
	status := m.renderStatus()

	return body + "\n" + status + "\n" + m.help.View(m.keys)
}

// renderCanvas projects the current scene onto a character grid. Edges are
// sampled as dim dots beneath the node glyphs.
func (m ExplorerModel) renderCanvas() string {
	w, h := m.canvasWidth(), m.canvasHeight()
	size := m.state.Size()

	glyphs := make([]string, w*h)
	for i := range glyphs {
		glyphs[i] = " "
	}

	project := func(x, y float64) (int, int, bool) {
		cx := int(x / size.Width * float64(w))
		cy := int(y / size.Height * float64(h))
		return cx, cy, cx >= 0 && cx < w && cy >= 0 && cy < h
	}

	scene := m.state.Scene()

	edgeDot := StyleDim.Render("·")
	for _, e := range scene.Edges {
		steps := int(math.Hypot(e.X2-e.X1, e.Y2-e.Y1) / size.Width * float64(w))
		for i := 0; i <= steps; i++ {
			t := float64(i) / math.Max(float64(steps), 1)
			if cx, cy, ok := project(e.X1+(e.X2-e.X1)*t, e.Y1+(e.Y2-e.Y1)*t); ok {
				glyphs[cy*w+cx] = edgeDot
			}
		}
	}

	hover := m.state.Hover()
	for _, n := range scene.Nodes {
		cx, cy, ok := project(n.X, n.Y)
		if !ok {
			continue
		}
		glyph := "●"
		if n.ID == hover {
			glyph = "◉"
		}
		glyphs[cy*w+cx] = lipgloss.NewStyle().Foreground(lipgloss.Color(n.Fill)).Render(glyph)
	}

	var b strings.Builder
	for y := 0; y < h; y++ {
		b.WriteString(strings.Join(glyphs[y*w:(y+1)*w], ""))
		if y < h-1 {
			b.WriteString("\n")
		}
	}

	frame := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	return frame.Render(b.String())
}

// renderSidebar shows either the detail panel or the selection summary.
func (m ExplorerModel) renderSidebar() string {
	style := lipgloss.NewStyle().
		Width(panelWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorDim).
		Padding(0, 1)

	if p := m.state.Panel(); p != nil {
		var b strings.Builder
		b.WriteString(StyleTitle.Render(p.Title) + "\n\n")
		b.WriteString(StyleDim.Render("Status   ") + StyleValue.Render(p.Status) + "\n")
		b.WriteString(StyleDim.Render("Duration ") + StyleValue.Render(p.Duration) + "\n")
		b.WriteString(StyleDim.Render("Mission  ") + StyleValue.Render(p.Mission) + "\n\n")
		b.WriteString(StyleValue.Render(p.Description) + "\n")
		if p.LinkEnabled {
			b.WriteString("\n" + styleCommand.Render(p.LinkURL) + "\n")
		}
		return style.Render(b.String())
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Biolens Explorer") + "\n\n")
	if n := m.selectedNode(); n != nil {
		b.WriteString(StyleHighlight.Render(n.Title) + "\n")
		b.WriteString(StyleDim.Render(string(n.Category)) + "\n")
		b.WriteString(StyleDim.Render(fmt.Sprintf("%d connections", n.Connections)) + "\n")
	} else {
		b.WriteString(StyleDim.Render("tab to select a node") + "\n")
	}
	return style.Render(b.String())
}

// renderStatus shows filter, mode, zoom, and simulation state on one line.
func (m ExplorerModel) renderStatus() string {
	parts := []string{
		"filter " + StyleHighlight.Render(string(m.state.Filter())),
		"layout " + StyleHighlight.Render(string(m.state.Mode())),
		fmt.Sprintf("zoom %.0f%%", m.state.Transform().Scale*100),
		fmt.Sprintf("%d nodes", len(m.state.Nodes())),
	}
	if m.state.Simulating() {
		parts = append(parts, StyleWarning.Render("simulating"))
	}
	if m.grabbed {
		parts = append(parts, StyleSuccess.Render("grabbed"))
	}
	return "  " + StyleDim.Render(strings.Join(parts, "  ·  "))
}
