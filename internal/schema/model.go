package schema

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tabler overrides the table name of a record type.
type Tabler interface {
	TableName() string
}

// Field describes one scalar (non-navigation) field of a record type.
type Field struct {
	// Name is the Go field name.
	Name string

	// Column is the store column name (tag name, else Name).
	Column string

	// Index is the field index within the struct.
	Index int

	Type reflect.Type

	PrimaryKey bool
	NotMapped  bool

	// Storable is true when Type appears in the AllowedTypes table.
	Storable bool

	// References is the navigation field this foreign key resolves into.
	// Nil when the field is not a foreign key.
	References *Navigation
}

// Navigation describes a field that holds derived references to other records.
type Navigation struct {
	Name  string
	Index int

	// Target is the struct type on the other side.
	Target reflect.Type

	// Many is true for iter.Seq[*Target] navigations.
	Many bool
}

// Model is the mapping metadata of one record type.
type Model struct {
	Type reflect.Type

	// Table is the effective table name.
	Table string

	// Fields are the scalar fields in declaration order, not-mapped included.
	Fields []*Field

	// Key holds the primary-key fields in declaration order.
	Key []*Field

	// ForeignKeys holds the foreign-key fields in declaration order.
	ForeignKeys []*Field

	Navigations []*Navigation
}

// Parse reads the mapping metadata of record type t. The collection name
// is used as table name unless the type implements Tabler.
func Parse(t reflect.Type, collection string, allowed AllowedTypes) (*Model, error) {
	if t.Kind() != reflect.Struct {
		return nil, newSchemaError(t.String(), "", "record type must be a struct, got %s", t.Kind())
	}

	m := &Model{Type: t, Table: collection}
	if tabler, ok := reflect.New(t).Interface().(Tabler); ok {
		if name := tabler.TableName(); name != "" {
			m.Table = name
		}
	}
	if m.Table == "" {
		return nil, newSchemaError(t.Name(), "", "no table name")
	}

	fkNames := make(map[*Field]string)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}

		if target, many, ok := navigationTarget(sf.Type); ok {
			m.Navigations = append(m.Navigations, &Navigation{
				Name:   sf.Name,
				Index:  i,
				Target: target,
				Many:   many,
			})
			continue
		}

		tag, err := parseTag(sf.Tag.Get("db"))
		if err != nil {
			return nil, newSchemaError(t.Name(), sf.Name, "%v", err)
		}

		f := &Field{
			Name:       sf.Name,
			Column:     sf.Name,
			Index:      i,
			Type:       sf.Type,
			PrimaryKey: tag.primaryKey,
			NotMapped:  tag.skip,
			Storable:   allowed.Allows(sf.Type),
		}
		if tag.column != "" {
			f.Column = tag.column
		}

		if f.PrimaryKey || tag.foreignKey != "" {
			if f.NotMapped {
				return nil, newSchemaError(t.Name(), sf.Name, "key field cannot be excluded from mapping")
			}
			if !f.Storable {
				return nil, newSchemaError(t.Name(), sf.Name, "key field has non-storable type %s", sf.Type)
			}
		}
		if f.PrimaryKey {
			m.Key = append(m.Key, f)
		}
		if tag.foreignKey != "" {
			fkNames[f] = tag.foreignKey
			m.ForeignKeys = append(m.ForeignKeys, f)
		}
		m.Fields = append(m.Fields, f)
	}

	for _, f := range m.ForeignKeys {
		name := fkNames[f]
		nav := m.Navigation(name)
		if nav == nil {
			return nil, newSchemaError(t.Name(), f.Name, "foreign key names unknown navigation field %q", name)
		}
		if nav.Many {
			return nil, newSchemaError(t.Name(), f.Name, "foreign key navigation %q must be single-valued", name)
		}
		f.References = nav
	}

	return m, nil
}

// navigationTarget recognises *X and iter.Seq[*X] for struct types X.
func navigationTarget(t reflect.Type) (reflect.Type, bool, bool) {
	switch t.Kind() {
	case reflect.Pointer:
		if isRecordStruct(t.Elem()) {
			return t.Elem(), false, true
		}
	case reflect.Func:
		if t.NumIn() != 1 || t.NumOut() != 0 {
			return nil, false, false
		}
		yield := t.In(0)
		if yield.Kind() != reflect.Func || yield.NumIn() != 1 || yield.NumOut() != 1 {
			return nil, false, false
		}
		if yield.Out(0).Kind() != reflect.Bool {
			return nil, false, false
		}
		elem := yield.In(0)
		if elem.Kind() == reflect.Pointer && isRecordStruct(elem.Elem()) {
			return elem.Elem(), true, true
		}
	}
	return nil, false, false
}

func isRecordStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != timeType
}

// Field returns the scalar field with the given Go name, or nil.
func (m *Model) Field(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Navigation returns the navigation field with the given Go name, or nil.
func (m *Model) Navigation(name string) *Navigation {
	for _, n := range m.Navigations {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// IsBridge reports whether the record type has a composite key.
func (m *Model) IsBridge() bool {
	return len(m.Key) >= 2
}

// RequireKey fails when the record type declares no primary key.
func (m *Model) RequireKey() error {
	if len(m.Key) == 0 {
		return newSchemaError(m.Type.Name(), "", "no primary key declared")
	}
	return nil
}

// Mapped returns the fields that are present in the live column list,
// not excluded from mapping and of a storable type. Column names are
// matched after NFC normalisation and Unicode case folding. Declaration
// order is preserved.
func (m *Model) Mapped(live []string) []*Field {
	present := make(map[string]struct{}, len(live))
	for _, c := range live {
		present[foldColumn(c)] = struct{}{}
	}

	var out []*Field
	for _, f := range m.Fields {
		if f.NotMapped || !f.Storable {
			continue
		}
		if _, ok := present[foldColumn(f.Column)]; ok {
			out = append(out, f)
		}
	}
	return out
}

// LiveColumns returns, for each field, the spelling of its column in the
// live column list, so statements quote the name the store reported.
// Fields without a live column keep their declared name.
func LiveColumns(live []string, fields []*Field) []string {
	spelled := make(map[string]string, len(live))
	for _, c := range live {
		spelled[foldColumn(c)] = c
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		if c, ok := spelled[foldColumn(f.Column)]; ok {
			out[i] = c
		} else {
			out[i] = f.Column
		}
	}
	return out
}

// foldColumn normalises name to NFC and case-folds it.
func foldColumn(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}

// KeyOf returns the comparable primary-key value of rec, a struct value of
// the model's type. Single keys are normalised with Normalize; composite
// keys are rendered into one string.
func (m *Model) KeyOf(rec reflect.Value) any {
	if len(m.Key) == 1 {
		return Normalize(rec.Field(m.Key[0].Index))
	}
	return CompositeKey(rec, m.Key)
}

// CompositeKey renders the values of fields in rec into one comparable string.
func CompositeKey(rec reflect.Value, fields []*Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprint(Normalize(rec.Field(f.Index)))
	}
	return strings.Join(parts, ",")
}

// Normalize widens numeric values so that keys of different integer
// widths and signedness compare equal. Every integer becomes an int64,
// except unsigned values above math.MaxInt64, which stay uint64.
func Normalize(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return u
		}
		return int64(u)
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	default:
		return v.Interface()
	}
}

// Columns returns the column names of fields.
func Columns(fields []*Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Column
	}
	return out
}

// Values returns the values of fields in rec, in order.
func Values(rec reflect.Value, fields []*Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = rec.Field(f.Index).Interface()
	}
	return out
}

// ScanTargets returns pointers to the fields of rec, suitable for sql.Rows.Scan.
// rec must be addressable.
func ScanTargets(rec reflect.Value, fields []*Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = rec.Field(f.Index).Addr().Interface()
	}
	return out
}
