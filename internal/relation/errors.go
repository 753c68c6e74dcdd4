package relation

import (
	"errors"
	"fmt"
)

// IntegrityError reports a foreign key without a matching target record,
// or a target collection holding duplicate primary keys.
type IntegrityError struct {
	// Collection is the collection owning the foreign key.
	Collection string

	// Field is the foreign-key field.
	Field string

	// Target is the collection the key was looked up in.
	Target string

	// Key is the unmatched (or duplicated) key value.
	Key any

	Message string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("relation: %s.%s -> %s: %s (key=%v)", e.Collection, e.Field, e.Target, e.Message, e.Key)
}

// IsIntegrityError returns true if err is or wraps an *IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
