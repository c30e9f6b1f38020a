package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localboard/sketchrelay/internal/state"
)

func TestFitCentresAndKeepsAspect(t *testing.T) {
	b := state.Bounds{MinX: 100, MinY: 100, MaxX: 300, MaxY: 200}
	p := fit(b, 297, 210)

	// width limits: (297-20)/200
	assert.InDelta(t, 277.0/200, p.scale, 1e-9)

	x1, y1 := p.apply(state.Point{X: 100, Y: 100})
	x2, y2 := p.apply(state.Point{X: 300, Y: 200})
	assert.InDelta(t, marginMM, x1, 1e-9)
	assert.InDelta(t, 297-marginMM, x2, 1e-9)
	assert.InDelta(t, 105.0, (y1+y2)/2, 1e-9, "vertically centred")
}

func TestFitDegenerateBounds(t *testing.T) {
	p := fit(state.Bounds{MinX: 5, MinY: 5, MaxX: 5, MaxY: 5}, 297, 210)
	assert.Greater(t, p.scale, 0.0)
	x, y := p.apply(state.Point{X: 5, Y: 5})
	assert.InDelta(t, 297.0/2, x, 1e-9)
	assert.InDelta(t, 210.0/2, y, 1e-9)
}

func TestWriteProducesPDF(t *testing.T) {
	strokes := []state.Stroke{
		{ID: "a", Points: []state.Point{{X: 0, Y: 0}, {X: 50, Y: 80}, {X: 120, Y: 10}}, Color: "red", Width: 3},
		{ID: "b", Points: []state.Point{{X: 60, Y: 60}}, Color: "#00aa00", Width: 10},
		{ID: "c"},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, strokes))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteEmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "board.pdf")
	require.NoError(t, File(path, []state.Stroke{{ID: "a", Points: []state.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, Color: "blue", Width: 2}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
