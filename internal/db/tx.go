package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is a transaction bound to a dialect.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// ExecContext executes a query without returning rows.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

// QueryContext executes a query that returns rows.
func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.Rebind(query), args...)
}

// QueryRowContext executes a query that returns at most one row.
func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
}

// WithTx runs fn inside a transaction at the requested isolation. The
// transaction is committed if fn returns nil and rolled back otherwise.
func (d *DB) WithTx(ctx context.Context, level Isolation, fn func(*Tx) error) error {
	sqlTx, err := d.sql.BeginTx(ctx, d.dialect.txOptions(level))
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx, dialect: d.dialect}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
