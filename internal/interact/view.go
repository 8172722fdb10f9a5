// Package interact turns pointer gestures into engine drag and selection
// calls and maintains the zoom/pan view transform.
package interact

import "math"

// ViewTransform maps simulation coordinates to screen coordinates:
// screen = sim*K + (X, Y).
type ViewTransform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform that leaves coordinates unchanged.
func Identity() ViewTransform {
	return ViewTransform{K: 1}
}

// Apply maps a simulation point to the screen.
func (t ViewTransform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a screen point back to simulation space.
func (t ViewTransform) Invert(sx, sy float64) (float64, float64) {
	return (sx - t.X) / t.K, (sy - t.Y) / t.K
}

// Translate returns t panned by (dx, dy) screen pixels.
func (t ViewTransform) Translate(dx, dy float64) ViewTransform {
	t.X += dx
	t.Y += dy
	return t
}

// ZoomAt scales by factor about the screen point (sx, sy), keeping that
// point fixed. The resulting scale is clamped to [min, max].
func (t ViewTransform) ZoomAt(factor, sx, sy, min, max float64) ViewTransform {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return t
	}
	px, py := t.Invert(sx, sy)
	k := Clamp(t.K*factor, min, max)
	return ViewTransform{K: k, X: sx - px*k, Y: sy - py*k}
}

// Clamp limits v to [min, max].
func Clamp(v, min, max float64) float64 {
	switch {
	case math.IsNaN(v):
		return min
	case v < min:
		return min
	case v > max:
		return max
	default:
		return v
	}
}

// WheelFactor converts a wheel delta into a zoom factor. Positive deltas
// (scrolling down) zoom out.
func WheelFactor(deltaY, sensitivity float64) float64 {
	return math.Pow(2, -deltaY*sensitivity)
}
