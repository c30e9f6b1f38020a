package state

// PenState is the local stroke lifecycle state.
type PenState int

const (
	Idle PenState = iota
	Drawing
)

func (s PenState) String() string {
	if s == Drawing {
		return "drawing"
	}
	return "idle"
}

// Pen is the local user's stroke in progress. A stroke always commits once
// begun; there is no cancel.
type Pen struct {
	state  PenState
	points []Point
	color  string
	width  int
}

// State returns the current lifecycle state.
func (p *Pen) State() PenState {
	return p.state
}

// Begin starts a stroke at sp. It is ignored unless the pen is idle.
func (p *Pen) Begin(v ViewTransform, sp ScreenPoint, color string, width int) bool {
	if p.state != Idle {
		return false
	}
	p.state = Drawing
	p.points = []Point{v.ToWorld(sp)}
	p.color = color
	p.width = ClampWidth(width)
	return true
}

// Extend appends sp and returns the whole accumulated path, which is what
// gets broadcast: peers always receive the full path, never a diff.
func (p *Pen) Extend(v ViewTransform, sp ScreenPoint) ([]Point, bool) {
	if p.state != Drawing {
		return nil, false
	}
	p.points = append(p.points, v.ToWorld(sp))
	return clonePoints(p.points), true
}

// End finishes the stroke and assigns it an identity from newID.
func (p *Pen) End(newID func() string) (Stroke, bool) {
	if p.state != Drawing {
		return Stroke{}, false
	}
	s := Stroke{
		ID:     newID(),
		Points: p.points,
		Color:  p.color,
		Width:  p.width,
	}
	p.state = Idle
	p.points = nil
	return s, true
}

// Path returns a copy of the in-progress path with its style.
func (p *Pen) Path() (points []Point, color string, width int) {
	return clonePoints(p.points), p.color, p.width
}
