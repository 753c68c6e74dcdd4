package dbcontext

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/relmap/internal/dbset"
	"github.com/roach88/relmap/internal/relation"
	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/store"
)

// Context owns the collections of one model and persists their changes
// through a store gateway.
type Context struct {
	gw       store.Gateway
	entries  []*entry
	logger   *slog.Logger
	allowed  schema.AllowedTypes
	tokens   TokenGenerator
	validate *validator.Validate
}

// entry is one discovered collection.
type entry struct {
	field  int
	name   string
	binder dbset.Binder
	model  *schema.Model

	// mapped lists the fields present in the live table, in declaration
	// order. columns and keyColumns hold the live spelling of their names.
	mapped     []*schema.Field
	columns    []string
	keyColumns []string
	coll       dbset.Collection
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

// WithAllowedTypes replaces schema.DefaultAllowedTypes.
func WithAllowedTypes(a schema.AllowedTypes) Option {
	return func(c *Context) {
		c.allowed = a
	}
}

// WithTokenGenerator sets the save token generator (for testing).
func WithTokenGenerator(g TokenGenerator) Option {
	return func(c *Context) {
		c.tokens = g
	}
}

// WithValidator replaces the validator used for `validate` struct tags, so
// callers can register custom validations.
func WithValidator(v *validator.Validate) Option {
	return func(c *Context) {
		c.validate = v
	}
}

// Open loads every collection declared by model, which must be a pointer
// to a struct whose exported *dbset.Set[T] fields name the collections.
// The field name is the collection name unless a `db:"name"` tag overrides
// it; `db:"-"` skips the field.
//
// The model's fields are assigned only once everything has loaded and
// resolved. A fetch failure is fatal and returns no Context.
func Open(ctx context.Context, gw store.Gateway, model any, opts ...Option) (*Context, error) {
	c := &Context{
		gw:       gw,
		logger:   slog.Default(),
		allowed:  schema.DefaultAllowedTypes(),
		tokens:   UUIDv7Generator{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}

	target, err := modelValue(model)
	if err != nil {
		return nil, err
	}
	if err := c.discover(target.Type()); err != nil {
		return nil, err
	}
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	if err := relation.Resolve(c.Collections()); err != nil {
		return nil, err
	}

	for _, e := range c.entries {
		target.Field(e.field).Set(reflect.ValueOf(e.coll))
	}

	c.logger.Info("context ready", "collections", len(c.entries))
	return c, nil
}

func modelValue(model any) (reflect.Value, error) {
	v := reflect.ValueOf(model)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, &schema.SchemaError{
			Type:    fmt.Sprintf("%T", model),
			Message: "model must be a non-nil pointer to a struct",
		}
	}
	return v.Elem(), nil
}

// discover finds the collection fields of t and reads their metadata.
func (c *Context) discover(t reflect.Type) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		binder, ok := reflect.Zero(sf.Type).Interface().(dbset.Binder)
		if !ok {
			continue
		}

		name := sf.Name
		switch tag := sf.Tag.Get("db"); tag {
		case "-":
			continue
		case "":
		default:
			name = tag
		}

		m, err := schema.Parse(binder.RecordType(), name, c.allowed)
		if err != nil {
			return err
		}
		c.entries = append(c.entries, &entry{field: i, name: name, binder: binder, model: m})
	}

	if len(c.entries) == 0 {
		return &schema.SchemaError{Type: t.Name(), Message: "model declares no collections"}
	}
	return nil
}

// load fetches every table through one connection, closed before returning.
func (c *Context) load(ctx context.Context) (err error) {
	conn, err := c.gw.Open(ctx)
	if err != nil {
		return storeErr("open", "", "", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			c.logger.Error("error closing connection", "error", cerr)
		}
	}()

	for _, e := range c.entries {
		if err := c.loadEntry(ctx, conn, e); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) loadEntry(ctx context.Context, conn store.Conn, e *entry) error {
	table := e.model.Table
	live, err := conn.Columns(ctx, table)
	if err != nil {
		return storeErr("columns", e.name, table, err)
	}

	e.mapped = e.model.Mapped(live)
	if len(e.mapped) == 0 {
		return &schema.SchemaError{
			Type:    e.model.Type.Name(),
			Message: fmt.Sprintf("table %s has no mapped columns", table),
		}
	}
	for _, k := range e.model.Key {
		if !slices.Contains(e.mapped, k) {
			return &schema.SchemaError{
				Type:    e.model.Type.Name(),
				Field:   k.Name,
				Message: fmt.Sprintf("key column %s missing from table %s", k.Column, table),
			}
		}
	}

	e.columns = schema.LiveColumns(live, e.mapped)
	e.keyColumns = schema.LiveColumns(live, e.model.Key)
	coll, err := e.binder.Load(e.name, e.model, e.mapped, func(next func() []any) error {
		return conn.FetchRows(ctx, table, e.columns, next)
	})
	if err != nil {
		return storeErr("fetch", e.name, table, err)
	}
	e.coll = coll

	c.logger.Debug("collection loaded",
		"collection", e.name,
		"table", table,
		"columns", len(e.columns),
		"records", coll.Len())
	return nil
}

// Collections returns the collections in discovery order.
func (c *Context) Collections() []dbset.Collection {
	out := make([]dbset.Collection, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.coll
	}
	return out
}

// Collection returns the collection with the given name.
func (c *Context) Collection(name string) (dbset.Collection, bool) {
	for _, e := range c.entries {
		if e.name == name {
			return e.coll, true
		}
	}
	return nil, false
}

// Resolve rewires every navigation from the live contents. SaveChanges does
// this itself; call it to see navigations of records added since.
func (c *Context) Resolve() error {
	return relation.Resolve(c.Collections())
}

// Pending summarises the unsaved changes of one collection.
type Pending struct {
	Collection string `json:"collection"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
}

// Pending returns the unsaved changes of every collection that has any.
func (c *Context) Pending() []Pending {
	var out []Pending
	for _, e := range c.entries {
		added, removed := e.coll.Pending()
		if len(added) == 0 && len(removed) == 0 {
			continue
		}
		out = append(out, Pending{Collection: e.name, Added: len(added), Removed: len(removed)})
	}
	return out
}
