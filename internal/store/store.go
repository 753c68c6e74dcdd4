package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/relmap/internal/sqlgen"
)

// DB is a Gateway over database/sql.
type DB struct {
	db      *sql.DB
	driver  string
	dialect sqlgen.Dialect
}

var _ Gateway = (*DB)(nil)

// Open opens the database behind dsn with the named driver and verifies
// the connection. SQLite databases get the pragmas listed in the package
// documentation.
func Open(driver, dsn string) (*DB, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	dialect, err := sqlgen.ForDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == sqlgen.SQLite {
		// Pragmas are per connection; keep exactly one.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return &DB{db: db, driver: driver, dialect: dialect}, nil
}

// Close closes the database.
func (s *DB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer the Gateway methods.
func (s *DB) DB() *sql.DB {
	return s.db
}

// Driver returns the driver name the database was opened with.
func (s *DB) Driver() string {
	return s.driver
}

// Dialect returns the SQL dialect of the database.
func (s *DB) Dialect() sqlgen.Dialect {
	return s.dialect
}

// Open pins a connection from the pool.
func (s *DB) Open(ctx context.Context) (Conn, error) {
	c, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	return &conn{c: c, dialect: s.dialect}, nil
}

// ExecScript runs each ;-separated statement of script in one transaction.
// Used by bootstrap tooling to create sample schemas.
func (s *DB) ExecScript(ctx context.Context, script string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("exec script: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec script: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("exec script: commit: %w", err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

type conn struct {
	c       *sql.Conn
	dialect sqlgen.Dialect
}

func (c *conn) Columns(ctx context.Context, table string) ([]string, error) {
	query, args := c.dialect.Columns(table)
	rows, err := c.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("columns of %s: scan: %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("columns of %s: table not found", table)
	}
	return cols, nil
}

func (c *conn) FetchRows(ctx context.Context, table string, columns []string, next func() []any) error {
	query, err := c.dialect.Select(table, columns)
	if err != nil {
		return err
	}

	rows, err := c.c.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := rows.Scan(next()...); err != nil {
			return fmt.Errorf("fetch %s: scan: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("fetch %s: %w", table, err)
	}
	return nil
}

func (c *conn) Begin(ctx context.Context) (Tx, error) {
	t, err := c.c.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &tx{tx: t, dialect: c.dialect}, nil
}

func (c *conn) Close() error {
	return c.c.Close()
}

type tx struct {
	tx      *sql.Tx
	dialect sqlgen.Dialect
}

func (t *tx) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	query, err := t.dialect.Insert(table, columns)
	if err != nil {
		return err
	}
	return t.execEach(ctx, "insert into "+table, query, rows)
}

func (t *tx) Delete(ctx context.Context, table string, keyColumns []string, keys [][]any) error {
	if len(keys) == 0 {
		return nil
	}
	query, err := t.dialect.Delete(table, keyColumns)
	if err != nil {
		return err
	}
	return t.execEach(ctx, "delete from "+table, query, keys)
}

// execEach runs one prepared statement per argument row.
func (t *tx) execEach(ctx context.Context, op, query string, rows [][]any) error {
	stmt, err := t.tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	for i, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%s: row %d: %w", op, i, err)
		}
	}
	return nil
}

func (t *tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
