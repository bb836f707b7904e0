// Package render turns a laid-out experiment graph into drawable scenes and
// serializes them to SVG, PNG, DOT, or JSON.
//
// The scene is the single visual description every sink consumes: edges first
// so nodes paint over them, then nodes, then labels. Styling decisions (the
// category palette, stroke widths, label truncation) are made once while
// building the scene so all output formats agree.
package render

import (
	"bytes"
	"encoding/json"

	"github.com/mkarlsen/biolens/pkg/errors"
	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/layout"
)

// =============================================================================
// Styling
// =============================================================================

const (
	// Edge styling. Edges render beneath nodes.
	EdgeStroke  = "#999"
	EdgeOpacity = 0.6
	EdgeWidth   = 2.0

	// Node outline. Hovering thickens and recolors the stroke.
	NodeStroke       = "#fff"
	NodeStrokeWidth  = 2.0
	HoverStroke      = "#fbbf24"
	HoverStrokeWidth = 4.0

	// Labels sit below their node, offset by the node radius plus this gap.
	LabelOffset   = 15.0
	LabelMaxRunes = 30
	LabelFontSize = 12.0
	LabelFill     = "#333"

	Background = "#ffffff"
)

// Truncate shortens a label to at most LabelMaxRunes runes, appending "..."
// when anything was cut.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= LabelMaxRunes {
		return s
	}
	return string(runes[:LabelMaxRunes]) + "..."
}

// =============================================================================
// Scene
// =============================================================================

// SceneEdge is a styled line segment between two node centers.
type SceneEdge struct {
	Source  string  `json:"source" bson:"source"`
	Target  string  `json:"target" bson:"target"`
	X1      float64 `json:"x1" bson:"x1"`
	Y1      float64 `json:"y1" bson:"y1"`
	X2      float64 `json:"x2" bson:"x2"`
	Y2      float64 `json:"y2" bson:"y2"`
	Stroke  string  `json:"stroke" bson:"stroke"`
	Opacity float64 `json:"opacity" bson:"opacity"`
	Width   float64 `json:"width" bson:"width"`
}

// SceneNode is a styled disc.
type SceneNode struct {
	ID          string  `json:"id" bson:"id"`
	X           float64 `json:"x" bson:"x"`
	Y           float64 `json:"y" bson:"y"`
	Radius      float64 `json:"radius" bson:"radius"`
	Fill        string  `json:"fill" bson:"fill"`
	Stroke      string  `json:"stroke" bson:"stroke"`
	StrokeWidth float64 `json:"strokeWidth" bson:"strokeWidth"`
}

// SceneLabel is a node caption, already truncated and positioned.
type SceneLabel struct {
	NodeID   string  `json:"nodeId" bson:"nodeId"`
	Text     string  `json:"text" bson:"text"`
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	FontSize float64 `json:"fontSize" bson:"fontSize"`
	Fill     string  `json:"fill" bson:"fill"`
}

// Scene is a resolution-independent drawing in viewport coordinates.
type Scene struct {
	Width      float64      `json:"width" bson:"width"`
	Height     float64      `json:"height" bson:"height"`
	Background string       `json:"background" bson:"background"`
	Edges      []SceneEdge  `json:"edges" bson:"edges"`
	Nodes      []SceneNode  `json:"nodes" bson:"nodes"`
	Labels     []SceneLabel `json:"labels" bson:"labels"`
}

// Options configures scene construction.
type Options struct {
	// Size is the viewport in scene units. Zero falls back to
	// layout.DefaultSize.
	Size layout.Size

	// HoverID marks one node as hovered, thickening its outline.
	HoverID string

	// Scale, TranslateX and TranslateY map world coordinates into the
	// viewport. A zero Scale means identity.
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// BuildScene projects laid-out nodes and edges into a styled scene. Node
// order is preserved; edges referencing unknown nodes are skipped.
func BuildScene(nodes []*graph.Node, edges []graph.Edge, opts Options) *Scene {
	size := opts.Size
	if size.Width == 0 || size.Height == 0 {
		size = layout.DefaultSize
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	project := func(x, y float64) (float64, float64) {
		return x*scale + opts.TranslateX, y*scale + opts.TranslateY
	}

	scene := &Scene{
		Width:      size.Width,
		Height:     size.Height,
		Background: Background,
		Edges:      make([]SceneEdge, 0, len(edges)),
		Nodes:      make([]SceneNode, 0, len(nodes)),
		Labels:     make([]SceneLabel, 0, len(nodes)),
	}

	byID := make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	for _, e := range edges {
		src, ok := byID[e.Source]
		if !ok {
			continue
		}
		tgt, ok := byID[e.Target]
		if !ok {
			continue
		}
		x1, y1 := project(src.X, src.Y)
		x2, y2 := project(tgt.X, tgt.Y)
		scene.Edges = append(scene.Edges, SceneEdge{
			Source: e.Source, Target: e.Target,
			X1: x1, Y1: y1, X2: x2, Y2: y2,
			Stroke: EdgeStroke, Opacity: EdgeOpacity, Width: EdgeWidth,
		})
	}

	for _, n := range nodes {
		x, y := project(n.X, n.Y)
		radius := n.Size * scale
		stroke, strokeWidth := NodeStroke, NodeStrokeWidth
		if n.ID == opts.HoverID {
			stroke, strokeWidth = HoverStroke, HoverStrokeWidth
		}
		scene.Nodes = append(scene.Nodes, SceneNode{
			ID: n.ID, X: x, Y: y, Radius: radius,
			Fill: n.Category.Color(), Stroke: stroke, StrokeWidth: strokeWidth,
		})
		scene.Labels = append(scene.Labels, SceneLabel{
			NodeID:   n.ID,
			Text:     Truncate(n.Title),
			X:        x,
			Y:        y + radius + LabelOffset*scale,
			FontSize: LabelFontSize,
			Fill:     LabelFill,
		})
	}

	return scene
}

// =============================================================================
// JSON sink
// =============================================================================

// RenderJSON serializes the scene for clients that draw it themselves.
func RenderJSON(s *Scene) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode scene")
	}
	return buf.Bytes(), nil
}
