package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/localboard/sketchrelay/internal/client"
	"github.com/localboard/sketchrelay/internal/state"
)

// colorSwatch is one palette entry. The selected swatch gets a heavier
// border.
type colorSwatch struct {
	widget.BaseWidget
	name     string
	selected bool
	OnTapped func(name string)
}

func newColorSwatch(name string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{name: name, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) setSelected(on bool) {
	if s.selected == on {
		return
	}
	s.selected = on
	s.Refresh()
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	fill := canvas.NewRectangle(state.ParseColor(s.name))
	fill.SetMinSize(fyne.NewSize(18, 18))
	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	r := &swatchRenderer{
		swatch:  s,
		fill:    fill,
		border:  border,
		objects: []fyne.CanvasObject{fill, border},
	}
	r.Refresh()
	return r
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.name)
	}
}

type swatchRenderer struct {
	swatch       *colorSwatch
	fill, border *canvas.Rectangle
	objects      []fyne.CanvasObject
}

func (r *swatchRenderer) Layout(size fyne.Size) {
	r.fill.Resize(size)
	r.border.Resize(size)
}

func (r *swatchRenderer) MinSize() fyne.Size { return r.fill.MinSize() }

func (r *swatchRenderer) Refresh() {
	r.border.StrokeWidth = 1
	r.border.StrokeColor = color.Gray{Y: 150}
	if r.swatch.selected {
		r.border.StrokeWidth = 3
		r.border.StrokeColor = color.Black
	}
	r.border.Refresh()
}

func (r *swatchRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *swatchRenderer) Destroy()                     {}

// toolbarActions are the toolbar's side effects that need the window.
type toolbarActions struct {
	export func()
	share  func()
}

func newToolbar(ctl Controls, actions toolbarActions) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { ctl.SetTool(client.ToolPen) }),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() { ctl.SetTool(client.ToolEraser) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), actions.export),
		widget.NewToolbarAction(theme.ContentCopyIcon(), actions.share),
	)

	var swatches []*colorSwatch
	onColor := func(name string) {
		ctl.SetColor(name)
		ctl.SetTool(client.ToolPen)
		for _, sw := range swatches {
			sw.setSelected(sw.name == name)
		}
	}
	current := ""
	if f := ctl.Frame(); f != nil {
		current = f.Color
	}
	objects := make([]fyne.CanvasObject, 0, len(state.Palette))
	for _, name := range state.Palette {
		sw := newColorSwatch(name, onColor)
		sw.selected = name == current
		swatches = append(swatches, sw)
		objects = append(objects, sw)
	}
	colorBox := container.NewGridWithRows(2, objects...)

	width := widget.NewSlider(state.MinWidth, state.MaxWidth)
	width.Step = 1
	if f := ctl.Frame(); f != nil {
		width.SetValue(float64(f.Width))
	}
	width.OnChangeEnded = func(val float64) {
		ctl.SetWidth(int(val))
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), width)

	return container.NewHBox(
		tb,
		widget.NewSeparator(),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
	)
}
