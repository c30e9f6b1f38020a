package storage

import (
	"context"
	"sync"

	"github.com/localboard/sketchrelay/internal/state"
)

// MemoryGateway keeps strokes in process memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryGateway struct {
	mu      sync.RWMutex
	strokes map[string]state.Stroke
	order   []string
}

func NewMemoryGateway(seed ...state.Stroke) *MemoryGateway {
	m := &MemoryGateway{strokes: make(map[string]state.Stroke)}
	for _, s := range seed {
		_ = m.Save(context.Background(), s)
	}
	return m
}

func (m *MemoryGateway) Save(_ context.Context, s state.Stroke) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.strokes[s.ID]; exists {
		return nil
	}
	m.strokes[s.ID] = s.Clone()
	m.order = append(m.order, s.ID)
	return nil
}

func (m *MemoryGateway) DeleteByIDs(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.strokes, id)
	}
	kept := m.order[:0]
	for _, id := range m.order {
		if _, exists := m.strokes[id]; exists {
			kept = append(kept, id)
		}
	}
	m.order = kept
	return nil
}

func (m *MemoryGateway) FetchAll(_ context.Context) ([]state.Stroke, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]state.Stroke, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.strokes[id].Clone())
	}
	return out, nil
}

// Len returns the number of stored strokes.
func (m *MemoryGateway) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.strokes)
}
