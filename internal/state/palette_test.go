package state

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorForIsDeterministic(t *testing.T) {
	assert.Equal(t, ColorFor("user-42"), ColorFor("user-42"))
	assert.Contains(t, Palette, ColorFor("user-42"))
	assert.Equal(t, "black", ColorFor(""))

	// "a" is code point 97; 97 % 24 == 1.
	assert.Equal(t, "blue", ColorFor("a"))
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, ParseColor("red"))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, ParseColor(" RED "))
	assert.Equal(t, color.RGBA{0xff, 0x45, 0x00, 255}, ParseColor("#ff4500"))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, ParseColor("not-a-colour"))
	for _, name := range Palette {
		_, ok := namedColors[name]
		assert.True(t, ok, name)
	}
}

func TestBounds(t *testing.T) {
	_, ok := BoundsOf(nil)
	assert.False(t, ok)

	b, ok := BoundsOf([]Point{{3, 4}, {-1, 8}, {2, 0}})
	assert.True(t, ok)
	assert.Equal(t, Bounds{MinX: -1, MinY: 0, MaxX: 3, MaxY: 8}, b)
	assert.Equal(t, 4.0, b.Width())
	assert.Equal(t, 8.0, b.Height())
	assert.True(t, b.Contains(Point{0, 0}))
	assert.False(t, b.Contains(Point{4, 0}))
	assert.True(t, b.Pad(1).Contains(Point{4, 0}))
	assert.True(t, b.Overlaps(Bounds{MinX: 3, MinY: 8, MaxX: 5, MaxY: 9}))
	assert.False(t, b.Overlaps(Bounds{MinX: 4, MinY: 9, MaxX: 5, MaxY: 10}))
}
