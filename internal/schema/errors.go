package schema

import (
	"errors"
	"fmt"
)

// SchemaError reports malformed or missing mapping metadata.
// It is fatal and surfaces while an engine is being constructed.
type SchemaError struct {
	// Type is the record type the metadata belongs to.
	Type string

	// Field is the offending field, empty for type-level problems.
	Field string

	// Message is a human-readable description.
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: %s.%s: %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("schema: %s: %s", e.Type, e.Message)
}

// IsSchemaError returns true if err is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

func newSchemaError(typeName, field, format string, args ...any) *SchemaError {
	return &SchemaError{
		Type:    typeName,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
