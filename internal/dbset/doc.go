// Package dbset holds entity collections and their change trackers.
//
// A Set[T] owns the live *T records of one record type. Records are
// identified by pointer: the tracker compares the live contents with the
// baseline taken at load time and classifies each record as Added,
// Unchanged or Removed. Field edits on loaded records are not tracked.
//
// Sets never touch the store. The orchestrator in internal/dbcontext drives
// them through the type-erased Collection interface.
package dbset
