package dbset

// Changes partitions a collection's records relative to its baseline.
type Changes[T any] struct {
	Added     []*T
	Unchanged []*T
	Removed   []*T
}

// Empty reports whether there is nothing to persist.
func (c Changes[T]) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Tracker holds the baseline snapshot of a collection.
// It never mutates records; it only classifies them.
type Tracker[T any] struct {
	baseline []*T
	index    map[*T]struct{}
}

// NewTracker snapshots records as the baseline. The slice is copied.
func NewTracker[T any](records []*T) *Tracker[T] {
	t := &Tracker[T]{}
	t.Reset(records)
	return t
}

// Reset replaces the baseline with a copy of records.
func (t *Tracker[T]) Reset(records []*T) {
	t.baseline = make([]*T, len(records))
	copy(t.baseline, records)
	t.index = make(map[*T]struct{}, len(records))
	for _, r := range records {
		t.index[r] = struct{}{}
	}
}

// Baseline returns a copy of the baseline snapshot.
func (t *Tracker[T]) Baseline() []*T {
	out := make([]*T, len(t.baseline))
	copy(out, t.baseline)
	return out
}

// Classify compares live against the baseline by identity.
// Added and Unchanged keep live order, Removed keeps baseline order.
func (t *Tracker[T]) Classify(live []*T) Changes[T] {
	var c Changes[T]
	current := make(map[*T]struct{}, len(live))
	for _, r := range live {
		current[r] = struct{}{}
		if _, ok := t.index[r]; ok {
			c.Unchanged = append(c.Unchanged, r)
		} else {
			c.Added = append(c.Added, r)
		}
	}
	for _, r := range t.baseline {
		if _, ok := current[r]; !ok {
			c.Removed = append(c.Removed, r)
		}
	}
	return c
}
