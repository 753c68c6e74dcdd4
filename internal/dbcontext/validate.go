package dbcontext

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/relmap/internal/schema"
)

// Validator is implemented by record types with rules that struct tags
// cannot express. It is called on a pointer to the record.
type Validator interface {
	Validate() error
}

// validateAll checks every live record of every collection and returns a
// *ValidationError listing all failures, or nil.
func (c *Context) validateAll() error {
	var verr ValidationError
	for _, e := range c.entries {
		navs := navigationNames(e.model)
		for i, rec := range e.coll.Values() {
			problems := c.validateRecord(rec, navs)
			if len(problems) == 0 {
				continue
			}
			re := RecordError{Collection: e.name, Index: i, Problems: problems}
			if len(e.model.Key) > 0 {
				re.Key = schema.CompositeKey(rec, e.model.Key)
			}
			verr.Records = append(verr.Records, re)
		}
	}
	if len(verr.Records) > 0 {
		return &verr
	}
	return nil
}

func (c *Context) validateRecord(rec reflect.Value, navs map[string]bool) []string {
	var problems []string
	ptr := rec.Addr().Interface()

	// Navigations point at records of other collections, which are
	// validated on their own.
	err := c.validate.StructFiltered(ptr, func(ns []byte) bool {
		parts := strings.SplitN(string(ns), ".", 3)
		return len(parts) > 1 && navs[parts[1]]
	})
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				problems = append(problems, describe(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	if v, ok := ptr.(Validator); ok {
		if err := v.Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	return problems
}

func describe(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
}

func navigationNames(m *schema.Model) map[string]bool {
	out := make(map[string]bool, len(m.Navigations))
	for _, n := range m.Navigations {
		out[n.Name] = true
	}
	return out
}
