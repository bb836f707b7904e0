package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/mkarlsen/biolens/pkg/errors"
)

// pointsPerInch converts scene units (pixels) into the inches Graphviz pos
// attributes expect.
const pointsPerInch = 72.0

// ToDOT converts a scene to Graphviz DOT, preserving computed positions via
// pinned pos attributes so the neato engine draws the layout as-is instead of
// recomputing one.
func ToDOT(s *Scene) string {
	var buf bytes.Buffer
	buf.WriteString("graph experiments {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=10];\n")
	fmt.Fprintf(&buf, "  edge [color=%q, penwidth=%.1f];\n", EdgeStroke, EdgeWidth)
	buf.WriteString("\n")

	labels := make(map[string]string, len(s.Labels))
	for _, l := range s.Labels {
		labels[l.NodeID] = l.Text
	}

	for _, n := range s.Nodes {
		// Graphviz y grows upward, scenes grow downward.
		fmt.Fprintf(&buf, "  %q [label=%q, pos=\"%.3f,%.3f!\", width=%.3f, fillcolor=%q, color=%q];\n",
			n.ID, labels[n.ID],
			n.X/pointsPerInch, (s.Height-n.Y)/pointsPerInch,
			2*n.Radius/pointsPerInch, n.Fill, n.Stroke)
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderGraphvizSVG renders a DOT graph to SVG using Graphviz. It backs the
// graphviz output format, where neato draws the pinned layout.
func RenderGraphvizSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render DOT")
	}
	return buf.Bytes(), nil
}
