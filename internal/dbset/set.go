package dbset

import (
	"iter"
	"slices"

	"github.com/roach88/relmap/internal/schema"
)

// Set is an ordered, type-homogeneous collection of live records plus the
// tracker holding its load-time baseline.
//
// Membership changes only through Add and Remove. Sets are not safe for
// concurrent use.
type Set[T any] struct {
	name    string
	model   *schema.Model
	items   []*T
	tracker *Tracker[T]
}

// New creates a set that owns records. The tracker baseline is a copy of
// the same slice, so a fresh set has no pending changes.
func New[T any](name string, model *schema.Model, records []*T) *Set[T] {
	items := make([]*T, len(records))
	copy(items, records)
	return &Set[T]{
		name:    name,
		model:   model,
		items:   items,
		tracker: NewTracker(items),
	}
}

// Name returns the collection name.
func (s *Set[T]) Name() string { return s.name }

// Model returns the mapping metadata of T.
func (s *Set[T]) Model() *schema.Model { return s.model }

// Len returns the number of live records.
func (s *Set[T]) Len() int { return len(s.items) }

// Add appends rec to the live contents. Adding a record that is already
// live is a no-op and returns false.
func (s *Set[T]) Add(rec *T) bool {
	if rec == nil || s.Contains(rec) {
		return false
	}
	s.items = append(s.items, rec)
	return true
}

// Remove removes rec by identity. Returns false if rec is not live.
func (s *Set[T]) Remove(rec *T) bool {
	i := slices.Index(s.items, rec)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(slices.Clone(s.items), i, i+1)
	return true
}

// Contains reports whether rec is live.
func (s *Set[T]) Contains(rec *T) bool {
	return slices.Contains(s.items, rec)
}

// All iterates over the live contents at the time iteration starts.
// The sequence can be ranged over any number of times.
func (s *Set[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, r := range s.items {
			if !yield(r) {
				return
			}
		}
	}
}

// Items returns a copy of the live contents.
func (s *Set[T]) Items() []*T {
	return slices.Clone(s.items)
}

// Find returns the first live record matching pred.
func (s *Set[T]) Find(pred func(*T) bool) (*T, bool) {
	for _, r := range s.items {
		if pred(r) {
			return r, true
		}
	}
	return nil, false
}

// Changes classifies the live contents against the baseline.
func (s *Set[T]) Changes() Changes[T] {
	return s.tracker.Classify(s.items)
}

// Accept makes the current live contents the new baseline.
func (s *Set[T]) Accept() {
	s.tracker.Reset(s.items)
}
