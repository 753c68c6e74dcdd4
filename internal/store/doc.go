// Package store is the gateway between the mapping engine and a relational
// database.
//
// The engine only talks to the Gateway, Conn and Tx interfaces:
//   - Gateway.Open pins one connection for a scope (a load, a save)
//   - Conn lists a table's live columns, fetches rows and begins transactions
//   - Tx inserts and deletes rows and is committed or rolled back as a unit
//
// DB implements them over database/sql. Supported drivers:
//
//	sqlite3   github.com/mattn/go-sqlite3 (default, cgo)
//	sqlite    modernc.org/sqlite (pure Go)
//	mysql     github.com/go-sql-driver/mysql (use parseTime=true in the DSN)
//	postgres  github.com/lib/pq
//
// # SQLite configuration
//
//   - foreign_keys=ON: enforce referential integrity
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - a single open connection, so pragmas hold for every scope
//
// The gateway never creates or migrates schema on its own. ExecScript exists
// for bootstrap tooling only.
package store
