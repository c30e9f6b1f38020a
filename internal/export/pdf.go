// Package export renders committed strokes to a PDF page.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/jung-kurt/gofpdf"

	"github.com/localboard/sketchrelay/internal/state"
)

const (
	marginMM    = 10.0
	minLineMM   = 0.2
	defaultSide = 100.0
)

// placement maps world coordinates onto the page.
type placement struct {
	scale  float64
	dx, dy float64
}

func (p placement) apply(pt state.Point) (float64, float64) {
	return pt.X*p.scale + p.dx, pt.Y*p.scale + p.dy
}

// fit scales bounds uniformly into the page area inside the margin and
// centres the result.
func fit(b state.Bounds, pageW, pageH float64) placement {
	availW, availH := pageW-2*marginMM, pageH-2*marginMM
	w, h := b.Width(), b.Height()
	if w <= 0 {
		w = defaultSide
	}
	if h <= 0 {
		h = defaultSide
	}
	scale := min(availW/w, availH/h)
	return placement{
		scale: scale,
		dx:    marginMM + (availW-b.Width()*scale)/2 - b.MinX*scale,
		dy:    marginMM + (availH-b.Height()*scale)/2 - b.MinY*scale,
	}
}

// Write renders strokes onto a single landscape A4 page, fitted to their
// bounding box, and writes the PDF to w.
func Write(w io.Writer, strokes []state.Stroke) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("sketchrelay board", true)
	pdf.AddPage()
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	pageW, pageH := pdf.GetPageSize()
	var bounds state.Bounds
	seen := false
	for _, s := range strokes {
		b, ok := state.BoundsOf(s.Points)
		if !ok {
			continue
		}
		b = b.Pad(float64(s.Width) / 2)
		if seen {
			bounds = bounds.Union(b)
		} else {
			bounds, seen = b, true
		}
	}
	place := fit(bounds, pageW, pageH)

	for _, s := range strokes {
		drawStroke(pdf, place, s)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func drawStroke(pdf *gofpdf.Fpdf, place placement, s state.Stroke) {
	c := state.ParseColor(s.Color)
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	lw := max(float64(s.Width)*place.scale, minLineMM)
	pdf.SetLineWidth(lw)

	if len(s.Points) == 1 {
		x, y := place.apply(s.Points[0])
		pdf.Circle(x, y, lw/2, "F")
		return
	}
	for i := 1; i < len(s.Points); i++ {
		x1, y1 := place.apply(s.Points[i-1])
		x2, y2 := place.apply(s.Points[i])
		pdf.Line(x1, y1, x2, y2)
	}
}

// File writes the PDF to path, creating parent directories.
func File(path string, strokes []state.Stroke) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, strokes); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	glog.Infof("[export]wrote %d strokes to %s\n", len(strokes), path)
	return nil
}
