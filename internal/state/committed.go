package state

import "github.com/golang/glog"

// CommittedSet is a client's view of all committed strokes, keyed by ID.
// A stroke appears at most once. Iteration follows insertion order so
// every render paints strokes in the order they were committed locally.
//
// CommittedSet is not safe for concurrent use; the owning session's event
// loop is its only writer.
type CommittedSet struct {
	strokes map[string]committedEntry
	order   []string
}

type committedEntry struct {
	stroke Stroke
	bounds Bounds
}

// NewCommittedSet returns an empty set.
func NewCommittedSet() *CommittedSet {
	return &CommittedSet{strokes: make(map[string]committedEntry)}
}

// Insert adds s unless a stroke with the same ID is already present.
// It returns true when the set changed.
func (c *CommittedSet) Insert(s Stroke) bool {
	if s.ID == "" {
		return false
	}
	if _, exists := c.strokes[s.ID]; exists {
		glog.V(2).Infof("[committed] %s already present\n", s.ID)
		return false
	}
	s = s.Clone()
	b, _ := BoundsOf(s.Points)
	c.strokes[s.ID] = committedEntry{stroke: s, bounds: b}
	c.order = append(c.order, s.ID)
	return true
}

// Delete removes every listed ID that is present and returns the ones it
// removed. Unknown IDs are ignored.
func (c *CommittedSet) Delete(ids ...string) []string {
	var removed []string
	for _, id := range ids {
		if _, exists := c.strokes[id]; !exists {
			continue
		}
		delete(c.strokes, id)
		removed = append(removed, id)
	}
	if len(removed) > 0 {
		c.compact()
	}
	return removed
}

func (c *CommittedSet) compact() {
	kept := c.order[:0]
	for _, id := range c.order {
		if _, exists := c.strokes[id]; exists {
			kept = append(kept, id)
		}
	}
	c.order = kept
}

// Has reports whether id is in the set.
func (c *CommittedSet) Has(id string) bool {
	_, exists := c.strokes[id]
	return exists
}

// Get returns a copy of the stroke with the given ID.
func (c *CommittedSet) Get(id string) (Stroke, bool) {
	e, exists := c.strokes[id]
	if !exists {
		return Stroke{}, false
	}
	return e.stroke.Clone(), true
}

// Len returns the number of committed strokes.
func (c *CommittedSet) Len() int {
	return len(c.strokes)
}

// IDs returns stroke IDs in insertion order.
func (c *CommittedSet) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Strokes returns copies of all strokes in insertion order.
func (c *CommittedSet) Strokes() []Stroke {
	out := make([]Stroke, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.strokes[id].stroke.Clone())
	}
	return out
}

// Bounds returns the union of every stroke's bounding box.
func (c *CommittedSet) Bounds() (Bounds, bool) {
	var (
		all Bounds
		ok  bool
	)
	for _, id := range c.order {
		e := c.strokes[id]
		if len(e.stroke.Points) == 0 {
			continue
		}
		if !ok {
			all, ok = e.bounds, true
			continue
		}
		all = all.Union(e.bounds)
	}
	return all, ok
}

// each visits strokes in insertion order together with their cached bounds.
func (c *CommittedSet) each(fn func(s *Stroke, b Bounds)) {
	for _, id := range c.order {
		e := c.strokes[id]
		fn(&e.stroke, e.bounds)
	}
}
