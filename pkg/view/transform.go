// Package view owns the interactive state of a rendered experiment graph:
// the zoom/pan transform, the active filter and layout mode, the running
// force simulation, hover and drag gestures, and the detail panel.
//
// Everything here is single-threaded by design. A host (TUI, test, or
// embedding application) drives the state with discrete events and frame
// ticks; gesture handlers run to completion between ticks, so a gesture's
// position write is always visible to the next render.
package view

import "math"

// Scale bounds for the viewport transform.
const (
	MinScale = 0.1
	MaxScale = 4.0
)

// ZoomStep is the multiplicative scale change of one discrete zoom event.
const ZoomStep = 1.2

// Transform maps world coordinates to screen coordinates: screen = world *
// Scale + Translate.
type Transform struct {
	Scale      float64 `json:"scale" bson:"scale"`
	TranslateX float64 `json:"translateX" bson:"translateX"`
	TranslateY float64 `json:"translateY" bson:"translateY"`
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{Scale: 1}
}

// IsIdentity reports whether the transform has no visible effect.
func (t Transform) IsIdentity() bool {
	return t.Scale == 1 && t.TranslateX == 0 && t.TranslateY == 0
}

// Apply maps a world point to screen space.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.TranslateX, y*t.Scale + t.TranslateY
}

// Invert maps a screen point back to world space.
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.TranslateX) / t.Scale, (y - t.TranslateY) / t.Scale
}

// Zoom scales the transform by factor about the screen point (cx, cy), so the
// world point under the cursor stays put. The resulting scale is clamped to
// [MinScale, MaxScale].
func (t Transform) Zoom(factor, cx, cy float64) Transform {
	scale := clamp(t.Scale*factor, MinScale, MaxScale)
	ratio := scale / t.Scale
	return Transform{
		Scale:      scale,
		TranslateX: cx - (cx-t.TranslateX)*ratio,
		TranslateY: cy - (cy-t.TranslateY)*ratio,
	}
}

// Pan shifts the transform by a screen-space delta.
func (t Transform) Pan(dx, dy float64) Transform {
	t.TranslateX += dx
	t.TranslateY += dy
	return t
}

// lerp interpolates toward target; used by the reset animation.
func (t Transform) lerp(target Transform, f float64) Transform {
	return Transform{
		Scale:      t.Scale + (target.Scale-t.Scale)*f,
		TranslateX: t.TranslateX + (target.TranslateX-t.TranslateX)*f,
		TranslateY: t.TranslateY + (target.TranslateY-t.TranslateY)*f,
	}
}

// near reports whether two transforms are visually indistinguishable.
func (t Transform) near(o Transform) bool {
	const eps = 1e-3
	return math.Abs(t.Scale-o.Scale) < eps &&
		math.Abs(t.TranslateX-o.TranslateX) < eps &&
		math.Abs(t.TranslateY-o.TranslateY) < eps
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
