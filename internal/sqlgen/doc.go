// Package sqlgen builds the parameterized statements the store gateway runs.
//
// Values are never interpolated into SQL: every value is a placeholder in
// the dialect's style (? for SQLite and MySQL, $n for Postgres) and
// identifiers are always quoted.
package sqlgen
