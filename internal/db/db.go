package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied to every pooled SQLite connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// DB is a database handle bound to a SQL dialect. Its query methods accept
// queries written with ? placeholders and rebind them for the dialect.
type DB struct {
	sql     *sql.DB
	dialect Dialect
}

// Open opens a database connection for the given driver ("sqlite" or
// "postgres") and verifies it.
func Open(driver, dsn string) (*DB, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	var conn *sql.DB
	switch dialect {
	case SQLite:
		conn, err = sql.Open("sqlite", sqliteDSN(dsn))
	case Postgres:
		conn, err = sql.Open("pgx", dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &DB{sql: conn, dialect: dialect}, nil
}

// sqliteDSN appends connection parameters so that every connection in the
// pool has the same pragmas and write transactions take the database lock
// when they begin.
func sqliteDSN(path string) string {
	params := make([]string, 0, len(sqlitePragmas)+1)
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	params = append(params, "_txlock=immediate")

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Dialect returns the SQL dialect of the connection.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	return d.sql.Close()
}

// PingContext verifies the connection is still alive.
func (d *DB) PingContext(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (d *DB) Stats() sql.DBStats {
	return d.sql.Stats()
}

// ExecContext executes a query without returning rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, d.dialect.Rebind(query), args...)
}

// QueryContext executes a query that returns rows.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, d.dialect.Rebind(query), args...)
}

// QueryRowContext executes a query that returns at most one row.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}

// Querier is implemented by both DB and Tx so that store functions can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
