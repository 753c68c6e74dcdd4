package dbcontext

import (
	"errors"
	"fmt"
	"strings"
)

// StoreError wraps a failure reported by the store gateway.
type StoreError struct {
	// Op is the gateway operation: open, columns, fetch, begin, insert,
	// delete or commit.
	Op string

	// Collection is the collection being processed, if any.
	Collection string

	// Table is the table being accessed, if any.
	Table string

	Err error
}

func (e *StoreError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("store: %s %s (table %s): %v", e.Op, e.Collection, e.Table, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError returns true if err is or wraps a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// RecordError lists the problems of one record.
type RecordError struct {
	Collection string `json:"collection"`

	// Index is the record's position in the collection's live contents.
	Index int `json:"index"`

	// Key is the record's primary key, empty for keyless types.
	Key string `json:"key,omitempty"`

	Problems []string `json:"problems"`
}

func (r RecordError) String() string {
	if r.Key != "" {
		return fmt.Sprintf("%s[%d] (key=%s): %s", r.Collection, r.Index, r.Key, strings.Join(r.Problems, ", "))
	}
	return fmt.Sprintf("%s[%d]: %s", r.Collection, r.Index, strings.Join(r.Problems, ", "))
}

// ValidationError aggregates every record that failed validation.
type ValidationError struct {
	Records []RecordError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Records))
	for i, r := range e.Records {
		parts[i] = r.String()
	}
	return fmt.Sprintf("validation failed for %d record(s): %s", len(e.Records), strings.Join(parts, "; "))
}

// IsValidationError returns true if err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func storeErr(op, collection, table string, err error) *StoreError {
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}
	return &StoreError{Op: op, Collection: collection, Table: table, Err: err}
}
