package schema

import (
	"reflect"
	"sort"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// AllowedTypes is the closed set of Go types that can round-trip through
// the store. The zero value allows nothing.
type AllowedTypes struct {
	set map[reflect.Type]struct{}
}

// NewAllowedTypes builds a table from the given types.
func NewAllowedTypes(types ...reflect.Type) AllowedTypes {
	set := make(map[reflect.Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return AllowedTypes{set: set}
}

// DefaultAllowedTypes covers text, signed and unsigned integers of every
// width, decimals (float32/float64), booleans and timestamps.
func DefaultAllowedTypes() AllowedTypes {
	return NewAllowedTypes(
		reflect.TypeOf(""),
		reflect.TypeOf(int(0)),
		reflect.TypeOf(int8(0)),
		reflect.TypeOf(int16(0)),
		reflect.TypeOf(int32(0)),
		reflect.TypeOf(int64(0)),
		reflect.TypeOf(uint(0)),
		reflect.TypeOf(uint8(0)),
		reflect.TypeOf(uint16(0)),
		reflect.TypeOf(uint32(0)),
		reflect.TypeOf(uint64(0)),
		reflect.TypeOf(float32(0)),
		reflect.TypeOf(float64(0)),
		reflect.TypeOf(false),
		timeType,
	)
}

// Allows reports whether t is storable.
func (a AllowedTypes) Allows(t reflect.Type) bool {
	_, ok := a.set[t]
	return ok
}

// Types returns the allowed types sorted by name.
func (a AllowedTypes) Types() []reflect.Type {
	out := make([]reflect.Type, 0, len(a.set))
	for t := range a.set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
