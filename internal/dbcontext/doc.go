// Package dbcontext is the persistence orchestrator.
//
// A model is a struct whose exported fields are entity collections:
//
//	type HR struct {
//		Departments *dbset.Set[hr.Department]
//		Employees   *dbset.Set[hr.Employee]
//		Links       *dbset.Set[hr.EmployeeProject] `db:"EmployeesProjects"`
//	}
//
// LIFECYCLE:
//
// Open discovers the collection fields, reads each record type's metadata,
// loads every table through one pinned connection, resolves relations
// across all collections and only then fills the model's fields. Any
// failure leaves the model untouched and no Context is returned.
//
// A ready Context accepts Add/Remove on its collections and SaveChanges
// calls indefinitely. It never reloads.
//
// SAVE PROTOCOL:
//  1. Validate every live record (validate tags, Validate() error hooks)
//     and the relation graph. Nothing is written on failure.
//  2. Open a connection and one transaction. For each collection in
//     discovery order insert Added records, then delete Removed records.
//  3. Commit, or roll back everything on the first failure.
//  4. Reset every baseline to the live contents.
//
// A Context is not safe for concurrent use.
package dbcontext
