package client

import (
	"math"
	"time"

	"github.com/golang/glog"

	"github.com/localboard/sketchrelay/internal/protocol"
	"github.com/localboard/sketchrelay/internal/state"
)

// ZoomStep is the scale factor applied per wheel notch.
const ZoomStep = 1.1

type Tool int

const (
	ToolPen Tool = iota
	ToolEraser
)

func (t Tool) String() string {
	if t == ToolEraser {
		return "eraser"
	}
	return "pen"
}

// Button identifies the pointer button behind an event. Primary draws or
// erases; secondary pans.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// effects is everything Board asks of the outside world. Implementations
// must not block: sends are best effort and persistence is asynchronous.
type effects interface {
	send(m protocol.Message)
	save(s state.Stroke)
	deleteByIDs(ids []string)
}

// Board is one client's complete drawing state. It is driven by a single
// goroutine and is not safe for concurrent use.
type Board struct {
	userID string
	color  string
	width  int
	tool   Tool
	fx     effects
	newID  func() string
	clock  state.Clock

	view      state.ViewTransform
	pen       state.Pen
	eraser    *state.Eraser
	committed *state.CommittedSet
	live      *state.LiveRegistry

	panning bool
	panFrom state.ScreenPoint

	// confirmed holds strokes a fetch has shown to be in the store. Only
	// those can be removed by Reconcile; local and broadcast commits stay
	// until someone erases them.
	confirmed map[string]struct{}
	// erased holds every id erased this session, locally or by a peer.
	// Reconcile never brings them back, whatever the store still says.
	erased map[string]struct{}
	// maxPoints caps a single stroke; longer gestures are split.
	maxPoints int

	connected bool
	// version changes on every visible change, committedRev only when the
	// committed set does.
	version      uint64
	committedRev uint64
}

func newBoard(userID string, fx effects, newID func() string, clock state.Clock) *Board {
	return &Board{
		userID:    userID,
		color:     state.ColorFor(userID),
		width:     state.DefaultWidth,
		fx:        fx,
		newID:     newID,
		clock:     clock,
		view:      state.NewViewTransform(),
		eraser:    state.NewEraser(),
		committed: state.NewCommittedSet(),
		live:      state.NewLiveRegistry(),
		confirmed: make(map[string]struct{}),
		erased:    make(map[string]struct{}),
		maxPoints: state.MaxStrokePoints,
	}
}

func (b *Board) SetTool(t Tool) {
	if b.pen.State() == state.Drawing || b.eraser.Active() {
		return
	}
	b.tool = t
	b.version++
}

func (b *Board) SetColor(c string) {
	if c == "" {
		return
	}
	b.color = c
	b.version++
}

func (b *Board) SetWidth(w int) {
	b.width = state.ClampWidth(w)
	b.version++
}

// PointerDown starts a stroke, an erase gesture or a pan.
func (b *Board) PointerDown(btn Button, sp state.ScreenPoint) {
	if btn == ButtonSecondary {
		b.panning = true
		b.panFrom = sp
		return
	}
	switch b.tool {
	case ToolEraser:
		b.eraser.Press()
		b.erase(sp)
	default:
		if b.pen.Begin(b.view, sp, b.color, b.width) {
			b.version++
		}
	}
}

// PointerMove extends the stroke, erases under the pointer or pans.
func (b *Board) PointerMove(sp state.ScreenPoint) {
	if b.panning {
		b.view.Pan(sp.X-b.panFrom.X, sp.Y-b.panFrom.Y)
		b.panFrom = sp
		b.version++
		return
	}
	if b.eraser.Active() {
		b.erase(sp)
		return
	}
	points, ok := b.pen.Extend(b.view, sp)
	if !ok {
		return
	}
	_, color, width := b.pen.Path()
	b.fx.send(protocol.Draw(b.userID, points, color, width))
	b.version++
	if len(points) >= b.maxPoints {
		// every draw carries the whole path, so keep frames bounded
		b.commit()
		b.pen.Begin(b.view, sp, color, width)
	}
}

// PointerUp commits the stroke or ends the gesture.
func (b *Board) PointerUp(btn Button, _ state.ScreenPoint) {
	if btn == ButtonSecondary {
		b.panning = false
		return
	}
	if b.eraser.Active() {
		b.eraser.Release()
		return
	}
	b.commit()
}

// commit is the only place a local stroke gets its identity. Local state
// changes before the save is confirmed and is never rolled back.
func (b *Board) commit() {
	s, ok := b.pen.End(b.newID)
	if !ok {
		return
	}
	b.committed.Insert(s)
	b.touchCommitted()

	b.fx.save(s)
	b.fx.send(protocol.Commit(b.userID, s))
	glog.V(1).Infof("[board]commit %s points=%d\n", s.ID, len(s.Points))
}

func (b *Board) erase(sp state.ScreenPoint) {
	ids := b.eraser.Scan(b.view, sp, b.committed)
	if len(ids) == 0 {
		return
	}
	removed := b.committed.Delete(ids...)
	b.tombstone(removed)
	b.touchCommitted()

	b.fx.send(protocol.DeleteLines(b.userID, removed))
	b.fx.deleteByIDs(removed)
	glog.V(1).Infof("[board]erase %v\n", removed)
}

// Wheel zooms around sp by ZoomStep per notch; positive notches zoom in.
func (b *Board) Wheel(sp state.ScreenPoint, notches float64) {
	if notches == 0 {
		return
	}
	b.view.ZoomAt(sp, math.Pow(ZoomStep, notches))
	b.version++
}

// Handle applies one message received from the relay.
func (b *Board) Handle(data []byte) {
	m, err := protocol.Decode(data)
	if err != nil {
		glog.V(1).Infof("[board]ignoring message: %s\n", err)
		return
	}
	b.Apply(m)
}

// Apply applies a decoded message.
func (b *Board) Apply(m protocol.Message) {
	switch m.Type {
	case protocol.TypeDraw:
		if m.UserID == b.userID {
			return
		}
		b.live.Draw(m.UserID, m.Points, m.Color, state.ClampWidth(m.Width), b.clock.Now())
	case protocol.TypeStopDrawing:
		s := m.Stroke()
		if entry, ok := b.live.Get(m.UserID); ok && len(s.Points) == 0 {
			s.Points, s.Color, s.Width = entry.Points, entry.Color, entry.Width
		}
		b.live.Remove(m.UserID)
		if len(s.Points) == 0 {
			glog.V(1).Infof("[board]commit %s from %s has no path yet\n", s.ID, m.UserID)
		} else if b.isErased(s.ID) {
			glog.V(1).Infof("[board]commit %s from %s was already erased\n", s.ID, m.UserID)
		} else if b.committed.Insert(s) {
			b.touchCommitted()
		}
	case protocol.TypeDeleteLines:
		b.tombstone(m.StrokeIDs)
		if removed := b.committed.Delete(m.StrokeIDs...); len(removed) > 0 {
			b.touchCommitted()
		}
	}
	b.version++
}

func (b *Board) touchCommitted() {
	b.committedRev++
	b.version++
}

// tombstone records erased ids. They stay recorded after the store
// delete succeeds, since a fetch that started earlier can still return them.
func (b *Board) tombstone(ids []string) {
	for _, id := range ids {
		b.erased[id] = struct{}{}
		delete(b.confirmed, id)
	}
}

func (b *Board) isErased(id string) bool {
	_, ok := b.erased[id]
	return ok
}

// Seed loads the strokes fetched at session start.
func (b *Board) Seed(strokes []state.Stroke) {
	for _, s := range strokes {
		if b.isErased(s.ID) {
			continue
		}
		b.committed.Insert(s)
		b.confirmed[s.ID] = struct{}{}
	}
	b.touchCommitted()
}

// Reconcile brings the committed set in line with a fresh fetch. Stored
// strokes missing locally are added unless they were erased. A local stroke
// missing from the store is removed only if an earlier fetch confirmed it,
// meaning someone deleted it while we were not listening. Local commits
// and broadcast commits the store never acknowledged are kept.
func (b *Board) Reconcile(stored []state.Stroke) (added, removed int) {
	inStore := make(map[string]struct{}, len(stored))
	for _, s := range stored {
		if b.isErased(s.ID) {
			continue
		}
		inStore[s.ID] = struct{}{}
		if b.committed.Insert(s) {
			added++
		}
		b.confirmed[s.ID] = struct{}{}
	}
	var stale []string
	for _, id := range b.committed.IDs() {
		if _, ok := inStore[id]; ok {
			continue
		}
		if _, ok := b.confirmed[id]; ok {
			stale = append(stale, id)
		}
	}
	for _, id := range b.committed.Delete(stale...) {
		delete(b.confirmed, id)
		removed++
	}
	if added+removed > 0 {
		b.touchCommitted()
	}
	return added, removed
}

// EvictIdle drops live strokes from users who stopped sending.
func (b *Board) EvictIdle(ttl time.Duration) []string {
	evicted := b.live.EvictIdle(b.clock.Now(), ttl)
	if len(evicted) > 0 {
		glog.V(1).Infof("[board]evicted idle %v\n", evicted)
		b.version++
	}
	return evicted
}

func (b *Board) setConnected(c bool) {
	if b.connected != c {
		b.connected = c
		b.version++
	}
}

// Committed exposes the committed set for inspection.
func (b *Board) Committed() *state.CommittedSet { return b.committed }

// Live exposes the live registry for inspection.
func (b *Board) Live() *state.LiveRegistry { return b.live }

// View returns the current view transform.
func (b *Board) View() state.ViewTransform { return b.view }
