package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// RenderSVG serializes the scene as a standalone SVG document. Edges are
// written before nodes so nodes paint on top, labels last.
func RenderSVG(s *Scene) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		s.Width, s.Height, s.Width, s.Height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", s.Background)

	buf.WriteString(`  <g class="edges">` + "\n")
	for _, e := range s.Edges {
		fmt.Fprintf(&buf, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-opacity="%.2f" stroke-width="%.1f"/>`+"\n",
			e.X1, e.Y1, e.X2, e.Y2, e.Stroke, e.Opacity, e.Width)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="nodes">` + "\n")
	for _, n := range s.Nodes {
		fmt.Fprintf(&buf, `    <circle id="node-%s" cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="%.1f"/>`+"\n",
			escape(n.ID), n.X, n.Y, n.Radius, n.Fill, n.Stroke, n.StrokeWidth)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="labels" font-family="sans-serif" text-anchor="middle">` + "\n")
	for _, l := range s.Labels {
		fmt.Fprintf(&buf, `    <text x="%.2f" y="%.2f" font-size="%.0f" fill="%s">%s</text>`+"\n",
			l.X, l.Y, l.FontSize, l.Fill, escape(l.Text))
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// escape makes arbitrary record text safe inside SVG markup.
func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
