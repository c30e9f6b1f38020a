package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveRegistryOverwrite(t *testing.T) {
	reg := NewLiveRegistry()
	now := time.Unix(100, 0)

	reg.Draw("A", []Point{{1, 1}, {2, 2}}, "red", 2, now)
	reg.Draw("A", []Point{{5, 5}}, "blue", 3, now.Add(time.Second))

	e, ok := reg.Get("A")
	require.True(t, ok)
	assert.Equal(t, []Point{{5, 5}}, e.Points)
	assert.Equal(t, "blue", e.Color)
	assert.Equal(t, 3, e.Width)
	assert.Equal(t, 1, reg.Len())
}

func TestLiveRegistryRemove(t *testing.T) {
	reg := NewLiveRegistry()
	reg.Draw("A", []Point{{1, 1}}, "red", 2, time.Now())

	assert.True(t, reg.Remove("A"))
	assert.False(t, reg.Remove("A"))
	_, ok := reg.Get("A")
	assert.False(t, ok)
}

func TestLiveRegistryEvictIdle(t *testing.T) {
	reg := NewLiveRegistry()
	start := time.Unix(0, 0)
	reg.Draw("stale", []Point{{1, 1}}, "red", 2, start)
	reg.Draw("fresh", []Point{{1, 1}}, "red", 2, start.Add(9*time.Second))

	evicted := reg.EvictIdle(start.Add(12*time.Second), 10*time.Second)
	assert.Equal(t, []string{"stale"}, evicted)

	entries := reg.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].UserID)
}

func TestLiveRegistryEntriesSorted(t *testing.T) {
	reg := NewLiveRegistry()
	now := time.Now()
	for _, id := range []string{"c", "a", "b"} {
		reg.Draw(id, []Point{{}}, "red", 1, now)
	}
	var ids []string
	for _, e := range reg.Entries() {
		ids = append(ids, e.UserID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	reg.Clear()
	assert.Equal(t, 0, reg.Len())
}
