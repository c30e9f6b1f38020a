package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/localboard/sketchrelay/internal/client"
	"github.com/localboard/sketchrelay/internal/state"
)

// scrollPerNotch is how far fyne scrolls for one wheel notch.
const scrollPerNotch = 10.0

var background = color.NRGBA{R: 245, G: 246, B: 248, A: 255}

// Controls is what the board view drives. *client.Session satisfies it.
type Controls interface {
	PointerDown(btn client.Button, sp state.ScreenPoint)
	PointerMove(sp state.ScreenPoint)
	PointerUp(btn client.Button, sp state.ScreenPoint)
	Wheel(sp state.ScreenPoint, notches float64)
	SetTool(t client.Tool)
	SetColor(c string)
	SetWidth(w int)
	Frame() *client.Frame
	Notices() <-chan client.Notice
}

// BoardView renders session frames and forwards pointer input.
type BoardView struct {
	widget.BaseWidget
	ctl   Controls
	frame *client.Frame
}

var (
	_ fyne.Widget       = (*BoardView)(nil)
	_ fyne.Draggable    = (*BoardView)(nil)
	_ fyne.Scrollable   = (*BoardView)(nil)
	_ desktop.Mouseable = (*BoardView)(nil)
	_ desktop.Hoverable = (*BoardView)(nil)
)

func NewBoardView(ctl Controls) *BoardView {
	v := &BoardView{ctl: ctl, frame: ctl.Frame()}
	v.ExtendBaseWidget(v)
	return v
}

// Show swaps in a new frame. Call it on the fyne goroutine.
func (v *BoardView) Show(f *client.Frame) {
	if f == nil || f == v.frame {
		return
	}
	v.frame = f
	v.Refresh()
}

func screen(p fyne.Position) state.ScreenPoint {
	return state.ScreenPoint{X: float64(p.X), Y: float64(p.Y)}
}

func button(b desktop.MouseButton) client.Button {
	if b == desktop.MouseButtonPrimary {
		return client.ButtonPrimary
	}
	return client.ButtonSecondary
}

func (v *BoardView) MouseDown(e *desktop.MouseEvent) {
	v.ctl.PointerDown(button(e.Button), screen(e.Position))
}

func (v *BoardView) MouseUp(e *desktop.MouseEvent) {
	v.ctl.PointerUp(button(e.Button), screen(e.Position))
}

func (v *BoardView) MouseMoved(e *desktop.MouseEvent) {
	v.ctl.PointerMove(screen(e.Position))
}

func (v *BoardView) Dragged(e *fyne.DragEvent) {
	v.ctl.PointerMove(screen(e.Position))
}

func (v *BoardView) Scrolled(e *fyne.ScrollEvent) {
	v.ctl.Wheel(screen(e.Position), float64(e.Scrolled.DY)/scrollPerNotch)
}

func (v *BoardView) MouseIn(*desktop.MouseEvent) {}
func (v *BoardView) MouseOut()                   {}
func (v *BoardView) DragEnd()                    {}

func (v *BoardView) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{view: v, background: canvas.NewRectangle(background)}
	r.rebuild()
	return r
}

type boardRenderer struct {
	view       *BoardView
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

// rebuild turns the current frame into canvas objects. Committed strokes
// go first so live paths draw on top.
func (r *boardRenderer) rebuild() {
	objects := []fyne.CanvasObject{r.background}
	f := r.view.frame
	if f != nil {
		for _, s := range f.Committed {
			objects = appendPath(objects, f.View, s.Points, s.Color, s.Width)
		}
		for _, l := range f.Live {
			objects = appendPath(objects, f.View, l.Points, l.Color, l.Width)
		}
		if f.Local != nil {
			objects = appendPath(objects, f.View, f.Local.Points, f.Local.Color, f.Local.Width)
		}
	}
	r.objects = objects
}

func appendPath(objects []fyne.CanvasObject, v state.ViewTransform, points []state.Point, name string, width int) []fyne.CanvasObject {
	c := state.ParseColor(name)
	w := float32(float64(width) * v.Scale)
	if len(points) == 1 {
		p := v.ToScreen(points[0])
		dot := canvas.NewCircle(c)
		dot.Resize(fyne.NewSize(w, w))
		dot.Move(fyne.NewPos(float32(p.X)-w/2, float32(p.Y)-w/2))
		return append(objects, dot)
	}
	for i := 1; i < len(points); i++ {
		a, b := v.ToScreen(points[i-1]), v.ToScreen(points[i])
		line := canvas.NewLine(c)
		line.StrokeWidth = w
		line.Position1 = fyne.NewPos(float32(a.X), float32(a.Y))
		line.Position2 = fyne.NewPos(float32(b.X), float32(b.Y))
		objects = append(objects, line)
	}
	return objects
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardRenderer) Refresh() {
	r.rebuild()
	r.background.Refresh()
	canvas.Refresh(r.view)
}

func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardRenderer) Destroy()                     {}
