package client

import "github.com/localboard/sketchrelay/internal/state"

// Frame is an immutable snapshot of everything a renderer needs. Readers
// must not modify its slices.
type Frame struct {
	Version   uint64
	View      state.ViewTransform
	Committed []state.Stroke
	Live      []state.LiveStroke
	// Local is the local user's stroke in progress, nil when idle.
	Local     *state.LiveStroke
	Tool      Tool
	Color     string
	Width     int
	Connected bool
}

// frameBuilder reuses the committed slice while the committed set is
// unchanged, which keeps pointer moves from copying every stroke.
type frameBuilder struct {
	committedAt uint64
	committed   []state.Stroke
}

func (fb *frameBuilder) build(b *Board) *Frame {
	f := &Frame{
		Version:   b.version,
		View:      b.view,
		Live:      b.live.Entries(),
		Tool:      b.tool,
		Color:     b.color,
		Width:     b.width,
		Connected: b.connected,
	}
	if b.committedRev != fb.committedAt || fb.committed == nil {
		fb.committed = b.committed.Strokes()
		fb.committedAt = b.committedRev
	}
	f.Committed = fb.committed
	if b.pen.State() == state.Drawing {
		points, color, width := b.pen.Path()
		f.Local = &state.LiveStroke{UserID: b.userID, Points: points, Color: color, Width: width}
	}
	return f
}
