package cli

import (
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap/internal/dbset"
	"github.com/roach88/relmap/internal/hr"
	"github.com/roach88/relmap/internal/schema"
)

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <collection> <key>",
		Short: "Remove one record and save",
		Long: `Remove the record with the given primary key from a collection of the
sample model and save. Composite keys are written comma-separated in key
order.

Removing a record that others still reference is rejected.

Examples:
  relmap remove --db ./hr.db Employees 11
  relmap remove --db ./hr.db EmployeesProjects 10,101`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(db)

			ctx := commandContext(cmd)
			m, c, err := openHR(ctx, rootOpts, db)
			if err != nil {
				return err
			}

			found, err := removeFrom(m, args[0], args[1])
			if err != nil {
				return err
			}
			if !found {
				return NewExitError(ExitCommandError, fmt.Sprintf("%s has no record with key %s", args[0], args[1]))
			}

			res, err := c.SaveChanges(ctx)
			if err != nil {
				return engineExitError("failed to save removal", err)
			}
			return formatter(rootOpts, cmd).Success(SaveView{res})
		},
	}
}

func removeFrom(m *hr.HR, collection, key string) (bool, error) {
	switch collection {
	case m.Departments.Name():
		return removeByKey(m.Departments, key), nil
	case m.Employees.Name():
		return removeByKey(m.Employees, key), nil
	case m.Projects.Name():
		return removeByKey(m.Projects, key), nil
	case m.EmployeesProjects.Name():
		return removeByKey(m.EmployeesProjects, key), nil
	}
	return false, NewExitError(ExitCommandError, fmt.Sprintf("unknown collection %q", collection))
}

// removeByKey removes the record of s whose rendered primary key is key.
func removeByKey[T any](s *dbset.Set[T], key string) bool {
	m := s.Model()
	rec, ok := s.Find(func(r *T) bool {
		return schema.CompositeKey(reflect.ValueOf(r).Elem(), m.Key) == key
	})
	if !ok {
		return false
	}
	return s.Remove(rec)
}
