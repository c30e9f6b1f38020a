package state

import "time"

// Point is a position in world coordinates. Stored strokes never carry
// screen coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScreenPoint is a position in device pixels relative to the canvas origin.
type ScreenPoint struct {
	X float64
	Y float64
}

const (
	MinWidth     = 1
	MaxWidth     = 10
	DefaultWidth = 2
)

// MaxStrokePoints bounds one stroke. A draw message carries the whole path,
// so this keeps it well under the relay's message limit.
const MaxStrokePoints = 8192

// Stroke is one committed line. ID is assigned by the committing client and
// is the only identity used for deduplication and deletion.
type Stroke struct {
	ID     string  `json:"id"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  int     `json:"width"`
}

// Clone returns a copy that shares no backing array with s.
func (s Stroke) Clone() Stroke {
	s.Points = clonePoints(s.Points)
	return s
}

// LiveStroke is a remote user's in-progress path. It has no ID until the
// owner commits it.
type LiveStroke struct {
	UserID   string
	Points   []Point
	Color    string
	Width    int
	LastSeen time.Time
}

// ClampWidth maps any width into [MinWidth, MaxWidth].
func ClampWidth(w int) int {
	if w < MinWidth {
		return MinWidth
	}
	if w > MaxWidth {
		return MaxWidth
	}
	return w
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}
