package dbset

import (
	"iter"
	"reflect"

	"github.com/roach88/relmap/internal/schema"
)

// Collection is the type-erased view of a *Set[T] used by the relation
// resolver and the orchestrator. Every method is implemented once, on
// Set[T]; callers never invoke methods reflectively.
type Collection interface {
	Name() string
	Model() *schema.Model
	Len() int

	// Values returns the live records as addressable struct values.
	Values() []reflect.Value

	// Where returns an iter.Seq[*T] value yielding the live records whose
	// field equals key (compared after schema.Normalize). The filter runs
	// each time the sequence is ranged over.
	Where(field *schema.Field, key any) reflect.Value

	// Pending returns the Added and Removed records as struct values.
	Pending() (added, removed []reflect.Value)

	// Accept makes the current live contents the new baseline.
	Accept()
}

// Binder builds collections for one record type. A nil *Set[T] implements
// it, so the declared type of a collection field is enough to load it.
type Binder interface {
	// RecordType returns T.
	RecordType() reflect.Type

	// Load allocates one record per row. fetch calls next once per row and
	// scans into the returned targets, which point into the new record's
	// fields in the order of fields.
	Load(name string, model *schema.Model, fields []*schema.Field, fetch func(next func() []any) error) (Collection, error)
}

var (
	_ Collection = (*Set[struct{}])(nil)
	_ Binder     = (*Set[struct{}])(nil)
)

// RecordType returns T. Safe on a nil receiver.
func (*Set[T]) RecordType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Load is safe on a nil receiver; it returns a new *Set[T].
func (*Set[T]) Load(name string, model *schema.Model, fields []*schema.Field, fetch func(next func() []any) error) (Collection, error) {
	var records []*T
	err := fetch(func() []any {
		rec := new(T)
		records = append(records, rec)
		return schema.ScanTargets(reflect.ValueOf(rec).Elem(), fields)
	})
	if err != nil {
		return nil, err
	}
	return New(name, model, records), nil
}

// Values returns the live records as addressable struct values, in
// insertion order. The slice is a snapshot; the records are shared.
func (s *Set[T]) Values() []reflect.Value {
	return elems(s.items)
}

// Where returns an iter.Seq[*T], wrapped in a reflect.Value, over the live
// records whose field normalises to key. The filter runs on every
// iteration, so the sequence follows later Add and Remove calls.
func (s *Set[T]) Where(field *schema.Field, key any) reflect.Value {
	seq := iter.Seq[*T](func(yield func(*T) bool) {
		for _, r := range s.items {
			if schema.Normalize(reflect.ValueOf(r).Elem().Field(field.Index)) != key {
				continue
			}
			if !yield(r) {
				return
			}
		}
	})
	return reflect.ValueOf(seq)
}

// Pending returns the records added and removed since the baseline, as
// struct values in the order Changes reports them.
func (s *Set[T]) Pending() (added, removed []reflect.Value) {
	c := s.Changes()
	return elems(c.Added), elems(c.Removed)
}

func elems[T any](records []*T) []reflect.Value {
	out := make([]reflect.Value, len(records))
	for i, r := range records {
		out[i] = reflect.ValueOf(r).Elem()
	}
	return out
}
