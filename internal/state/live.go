package state

import (
	"sort"
	"time"
)

// LiveRegistry holds at most one in-progress stroke per remote user. Each
// Draw replaces the previous path for that user; entries are removed on the
// user's commit or when they go idle.
//
// LiveRegistry is not safe for concurrent use.
type LiveRegistry struct {
	entries map[string]LiveStroke
}

// NewLiveRegistry returns an empty registry.
func NewLiveRegistry() *LiveRegistry {
	return &LiveRegistry{entries: make(map[string]LiveStroke)}
}

// Draw overwrites userID's entry with the given full path.
func (r *LiveRegistry) Draw(userID string, points []Point, color string, width int, now time.Time) {
	r.entries[userID] = LiveStroke{
		UserID:   userID,
		Points:   clonePoints(points),
		Color:    color,
		Width:    width,
		LastSeen: now,
	}
}

// Remove drops userID's entry and reports whether one existed.
func (r *LiveRegistry) Remove(userID string) bool {
	if _, exists := r.entries[userID]; !exists {
		return false
	}
	delete(r.entries, userID)
	return true
}

// Get returns a copy of userID's entry.
func (r *LiveRegistry) Get(userID string) (LiveStroke, bool) {
	e, exists := r.entries[userID]
	if !exists {
		return LiveStroke{}, false
	}
	e.Points = clonePoints(e.Points)
	return e, true
}

// Len returns the number of users currently drawing.
func (r *LiveRegistry) Len() int {
	return len(r.entries)
}

// Entries returns copies of every entry ordered by user ID.
func (r *LiveRegistry) Entries() []LiveStroke {
	out := make([]LiveStroke, 0, len(r.entries))
	for _, e := range r.entries {
		e.Points = clonePoints(e.Points)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// EvictIdle removes entries whose last Draw is older than ttl and returns
// the evicted user IDs.
func (r *LiveRegistry) EvictIdle(now time.Time, ttl time.Duration) []string {
	var evicted []string
	for id, e := range r.entries {
		if now.Sub(e.LastSeen) > ttl {
			delete(r.entries, id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// Clear removes every entry.
func (r *LiveRegistry) Clear() {
	clear(r.entries)
}
