package store

import "context"

// Gateway opens connection scopes.
type Gateway interface {
	// Open pins a connection. The caller must Close it on every path.
	Open(ctx context.Context) (Conn, error)
}

// Conn is one pinned connection.
type Conn interface {
	// Columns returns the live column names of table in ordinal order.
	// A missing table is an error.
	Columns(ctx context.Context, table string) ([]string, error)

	// FetchRows selects columns from every row of table. For each row it
	// calls next and scans the row into the returned targets.
	FetchRows(ctx context.Context, table string, columns []string, next func() []any) error

	// Begin starts a transaction. At most one is open per Conn.
	Begin(ctx context.Context) (Tx, error)

	Close() error
}

// Tx is a transaction on a Conn.
type Tx interface {
	// Insert inserts rows; each row holds one value per column.
	Insert(ctx context.Context, table string, columns []string, rows [][]any) error

	// Delete deletes the rows matching keys; each key holds one value per
	// key column.
	Delete(ctx context.Context, table string, keyColumns []string, keys [][]any) error

	Commit() error
	Rollback() error
}
