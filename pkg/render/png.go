package render

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/mkarlsen/biolens/pkg/errors"
)

// DefaultPNGScale produces 2x resolution images suitable for high-DPI
// displays.
const DefaultPNGScale = 2.0

// RenderPNG rasterizes the scene at the given scale factor. A scale of zero
// or less falls back to DefaultPNGScale.
func RenderPNG(s *Scene, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = DefaultPNGScale
	}

	dc := gg.NewContext(int(s.Width*scale+0.5), int(s.Height*scale+0.5))
	dc.Scale(scale, scale)

	dc.SetHexColor(s.Background)
	dc.Clear()

	for _, e := range s.Edges {
		r, g, b := hexRGB(e.Stroke)
		dc.SetRGBA(r, g, b, e.Opacity)
		dc.SetLineWidth(e.Width)
		dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		dc.Stroke()
	}

	for _, n := range s.Nodes {
		dc.DrawCircle(n.X, n.Y, n.Radius)
		dc.SetHexColor(n.Fill)
		dc.FillPreserve()
		dc.SetHexColor(n.Stroke)
		dc.SetLineWidth(n.StrokeWidth)
		dc.Stroke()
	}

	for _, l := range s.Labels {
		dc.SetHexColor(l.Fill)
		dc.DrawStringAnchored(l.Text, l.X, l.Y, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// hexRGB parses #rgb or #rrggbb into [0,1] components. Unparseable input
// yields black.
func hexRGB(s string) (r, g, b float64) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	r = float64(v>>16&0xff) / 255
	g = float64(v>>8&0xff) / 255
	b = float64(v&0xff) / 255
	return r, g, b
}
