package store

import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// DefaultDriver is used when no driver is configured.
const DefaultDriver = "sqlite3"

// Drivers lists the supported driver names.
var Drivers = []string{"sqlite3", "sqlite", "mysql", "postgres"}
