package render

import (
	"context"

	"github.com/mkarlsen/biolens/pkg/errors"
)

// Format selects a scene output encoding.
type Format string

const (
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
	FormatDOT      Format = "dot"
	FormatJSON     Format = "json"
	FormatGraphviz Format = "graphviz"
)

// Formats lists every supported output format.
var Formats = []Format{FormatSVG, FormatPNG, FormatDOT, FormatJSON, FormatGraphviz}

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if s == string(f) {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown output format: %s", s)
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatGraphviz {
		return "gv.svg"
	}
	return string(f)
}

// Render serializes the scene in the requested format. Scale only affects
// raster output.
func Render(ctx context.Context, s *Scene, format Format, scale float64) ([]byte, error) {
	switch format {
	case FormatSVG:
		return RenderSVG(s), nil
	case FormatPNG:
		return RenderPNG(s, scale)
	case FormatDOT:
		return []byte(ToDOT(s)), nil
	case FormatJSON:
		return RenderJSON(s)
	case FormatGraphviz:
		return RenderGraphvizSVG(ctx, ToDOT(s))
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown output format: %s", string(format))
	}
}
