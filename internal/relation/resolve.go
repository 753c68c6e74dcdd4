package relation

import (
	"fmt"
	"reflect"

	"github.com/roach88/relmap/internal/dbset"
	"github.com/roach88/relmap/internal/schema"
)

// Resolve wires every navigation field of every record in collections.
// All single-valued navigations are set before any collection-valued one.
func Resolve(collections []dbset.Collection) error {
	r, err := newResolver(collections)
	if err != nil {
		return err
	}
	for _, c := range collections {
		if err := r.resolveSingle(c); err != nil {
			return err
		}
	}
	for _, c := range collections {
		if err := r.resolveMany(c); err != nil {
			return err
		}
	}
	return nil
}

type resolver struct {
	byType  map[reflect.Type]dbset.Collection
	indexes map[reflect.Type]map[any]reflect.Value
}

func newResolver(collections []dbset.Collection) (*resolver, error) {
	r := &resolver{
		byType:  make(map[reflect.Type]dbset.Collection, len(collections)),
		indexes: make(map[reflect.Type]map[any]reflect.Value),
	}
	for _, c := range collections {
		t := c.Model().Type
		if prev, ok := r.byType[t]; ok {
			return nil, &schema.SchemaError{
				Type:    t.Name(),
				Message: fmt.Sprintf("record type is held by two collections (%s, %s)", prev.Name(), c.Name()),
			}
		}
		r.byType[t] = c
	}
	return r, nil
}

// target returns the collection holding records of type t.
func (r *resolver) target(owner *schema.Model, nav *schema.Navigation) (dbset.Collection, error) {
	c, ok := r.byType[nav.Target]
	if !ok {
		return nil, &schema.SchemaError{
			Type:    owner.Type.Name(),
			Field:   nav.Name,
			Message: fmt.Sprintf("navigation type %s has no collection", nav.Target),
		}
	}
	if err := c.Model().RequireKey(); err != nil {
		return nil, err
	}
	return c, nil
}

// index maps the primary key of every live record in c to the record.
func (r *resolver) index(c dbset.Collection) (map[any]reflect.Value, error) {
	m := c.Model()
	if idx, ok := r.indexes[m.Type]; ok {
		return idx, nil
	}
	idx := make(map[any]reflect.Value, c.Len())
	for _, rec := range c.Values() {
		key := m.KeyOf(rec)
		if _, dup := idx[key]; dup {
			return nil, &IntegrityError{
				Collection: c.Name(),
				Field:      m.Key[0].Name,
				Target:     c.Name(),
				Key:        key,
				Message:    "duplicate primary key",
			}
		}
		idx[key] = rec
	}
	r.indexes[m.Type] = idx
	return idx, nil
}

func (r *resolver) resolveSingle(c dbset.Collection) error {
	owner := c.Model()
	for _, fk := range owner.ForeignKeys {
		nav := fk.References
		target, err := r.target(owner, nav)
		if err != nil {
			return err
		}
		if target.Model().IsBridge() {
			return &schema.SchemaError{
				Type:    owner.Type.Name(),
				Field:   fk.Name,
				Message: fmt.Sprintf("foreign key cannot reference composite-key type %s", nav.Target.Name()),
			}
		}
		idx, err := r.index(target)
		if err != nil {
			return err
		}

		for _, rec := range c.Values() {
			key := schema.Normalize(rec.Field(fk.Index))
			match, ok := idx[key]
			if !ok {
				return &IntegrityError{
					Collection: c.Name(),
					Field:      fk.Name,
					Target:     target.Name(),
					Key:        key,
					Message:    "no matching record",
				}
			}
			rec.Field(nav.Index).Set(match.Addr())
		}
	}
	return nil
}

func (r *resolver) resolveMany(c dbset.Collection) error {
	owner := c.Model()
	for _, nav := range owner.Navigations {
		if !nav.Many {
			continue
		}
		if err := owner.RequireKey(); err != nil {
			return err
		}
		if owner.IsBridge() {
			return &schema.SchemaError{
				Type:    owner.Type.Name(),
				Field:   nav.Name,
				Message: "collection navigation on a composite-key type",
			}
		}
		target, err := r.target(owner, nav)
		if err != nil {
			return err
		}

		fk := inverseKey(target.Model(), owner.Type)
		if fk == nil {
			return &schema.SchemaError{
				Type:    owner.Type.Name(),
				Field:   nav.Name,
				Message: fmt.Sprintf("%s has no foreign key referencing %s", nav.Target.Name(), owner.Type.Name()),
			}
		}

		for _, rec := range c.Values() {
			assign(rec.Field(nav.Index), target.Where(fk, owner.KeyOf(rec)))
		}
	}
	return nil
}

// inverseKey finds the field of target that references owner. For a bridge
// record only its key fields are considered.
func inverseKey(target *schema.Model, owner reflect.Type) *schema.Field {
	candidates := target.ForeignKeys
	if target.IsBridge() {
		candidates = target.Key
	}
	for _, f := range candidates {
		if f.References != nil && f.References.Target == owner {
			return f
		}
	}
	return nil
}

func assign(dst, v reflect.Value) {
	if v.Type().AssignableTo(dst.Type()) {
		dst.Set(v)
		return
	}
	dst.Set(v.Convert(dst.Type()))
}
