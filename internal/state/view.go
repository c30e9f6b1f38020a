package state

import "math"

// Scale bounds for ViewTransform. Zooming outside them is clamped.
const (
	MinScale = 0.1
	MaxScale = 10.0
)

// ViewTransform maps between screen and world coordinates for one client.
// It is never synchronised between clients.
//
//	screen = (world + offset) * scale
type ViewTransform struct {
	OffsetX float64
	OffsetY float64
	Scale   float64
}

// NewViewTransform returns the identity view: no offset, scale 1.
func NewViewTransform() ViewTransform {
	return ViewTransform{Scale: 1}
}

func (v ViewTransform) scale() float64 {
	if v.Scale <= 0 || math.IsNaN(v.Scale) {
		return 1
	}
	return v.Scale
}

// ToScreen converts a world point into screen pixels.
func (v ViewTransform) ToScreen(p Point) ScreenPoint {
	s := v.scale()
	return ScreenPoint{
		X: (p.X + v.OffsetX) * s,
		Y: (p.Y + v.OffsetY) * s,
	}
}

// ToWorld is the exact inverse of ToScreen.
func (v ViewTransform) ToWorld(sp ScreenPoint) Point {
	s := v.scale()
	return Point{
		X: sp.X/s - v.OffsetX,
		Y: sp.Y/s - v.OffsetY,
	}
}

// ZoomAt multiplies the scale by factor while keeping the world point under
// anchor at the same screen position.
func (v *ViewTransform) ZoomAt(anchor ScreenPoint, factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	pivot := v.ToWorld(anchor)
	v.Scale = clampScale(v.scale() * factor)
	v.OffsetX = anchor.X/v.Scale - pivot.X
	v.OffsetY = anchor.Y/v.Scale - pivot.Y
}

// Pan moves the view by a screen-space drag of (dx, dy) pixels.
func (v *ViewTransform) Pan(dx, dy float64) {
	s := v.scale()
	v.Scale = s
	v.OffsetX += dx / s
	v.OffsetY += dy / s
}

// WorldDistance converts a length in screen pixels into world units.
func (v ViewTransform) WorldDistance(px float64) float64 {
	return px / v.scale()
}

func clampScale(s float64) float64 {
	return math.Min(MaxScale, math.Max(MinScale, s))
}
