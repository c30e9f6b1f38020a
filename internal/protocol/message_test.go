package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localboard/sketchrelay/internal/state"
)

func TestDecodeWireShapes(t *testing.T) {
	t.Run("draw", func(t *testing.T) {
		m, err := Decode([]byte(`{"type":"draw","userId":"A","points":[{"x":1,"y":1}],"color":"red","width":3}`))
		require.NoError(t, err)
		assert.Equal(t, TypeDraw, m.Type)
		assert.Equal(t, []state.Point{{X: 1, Y: 1}}, m.Points)
		assert.Equal(t, "red", m.Color)
		assert.Equal(t, 3, m.Width)
	})

	t.Run("stopDrawing", func(t *testing.T) {
		m, err := Decode([]byte(`{"type":"stopDrawing","userId":"A","strokeId":"x"}`))
		require.NoError(t, err)
		assert.Equal(t, "x", m.Stroke().ID)
		assert.Equal(t, state.MinWidth, m.Stroke().Width)
	})

	t.Run("deleteLines", func(t *testing.T) {
		m, err := Decode([]byte(`{"type":"deleteLines","userId":"A","strokeIds":["a","b"]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, m.StrokeIDs)
	})
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":          `{`,
		"missing user":      `{"type":"draw","points":[{"x":1,"y":1}]}`,
		"draw no points":    `{"type":"draw","userId":"A"}`,
		"commit without id": `{"type":"stopDrawing","userId":"A"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}

	_, err := Decode([]byte(`{"type":"clear","userId":"A"}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestCommitCarriesFullStroke(t *testing.T) {
	s := state.Stroke{ID: "x", Points: []state.Point{{X: 0, Y: 0}, {X: 2, Y: 2}}, Color: "blue", Width: 4}

	data, err := Encode(Commit("A", s))
	require.NoError(t, err)

	m, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeStopDrawing, m.Type)
	assert.Equal(t, s, m.Stroke())
}

func TestEncodeValidates(t *testing.T) {
	_, err := Encode(Draw("", []state.Point{{X: 1}}, "red", 1))
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
