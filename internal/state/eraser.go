package state

import "math"

// DefaultEraserThreshold is the eraser radius in screen pixels.
const DefaultEraserThreshold = 10.0

// HitTest reports whether any point of stroke lies within thresholdPx screen
// pixels of sp, measured in world space under v.
func HitTest(v ViewTransform, sp ScreenPoint, stroke Stroke, thresholdPx float64) bool {
	return hitPoints(v.ToWorld(sp), v.WorldDistance(thresholdPx), stroke.Points)
}

func hitPoints(center Point, radius float64, points []Point) bool {
	for _, p := range points {
		if math.Hypot(p.X-center.X, p.Y-center.Y) <= radius {
			return true
		}
	}
	return false
}

// Eraser tracks whether the erase gesture is in progress and finds the
// committed strokes under the pointer.
type Eraser struct {
	Threshold float64
	active    bool
}

// NewEraser returns an eraser with the default threshold.
func NewEraser() *Eraser {
	return &Eraser{Threshold: DefaultEraserThreshold}
}

func (e *Eraser) Press()       { e.active = true }
func (e *Eraser) Release()     { e.active = false }
func (e *Eraser) Active() bool { return e.active }

// Scan returns the IDs of committed strokes hit at sp, in insertion order.
// Strokes whose padded bounding box misses the pointer are skipped without
// visiting their points.
func (e *Eraser) Scan(v ViewTransform, sp ScreenPoint, set *CommittedSet) []string {
	if set == nil || set.Len() == 0 {
		return nil
	}
	threshold := e.Threshold
	if threshold <= 0 {
		threshold = DefaultEraserThreshold
	}
	center := v.ToWorld(sp)
	radius := v.WorldDistance(threshold)

	var hit []string
	set.each(func(s *Stroke, b Bounds) {
		if len(s.Points) == 0 || !b.Pad(radius).Contains(center) {
			return
		}
		if hitPoints(center, radius, s.Points) {
			hit = append(hit, s.ID)
		}
	})
	return hit
}
