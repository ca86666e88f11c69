package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour of the backing store.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// Rebind rewrites ? placeholders into the dialect's positional form.
// Question marks inside quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Isolation names the guarantee a transaction needs.
type Isolation int

const (
	// ReadCommitted is enough for operations that only add to the ledger.
	ReadCommitted Isolation = iota
	// Serializable is required when a write depends on aggregate ledger
	// state read in the same transaction.
	Serializable
)

// txOptions translates an isolation requirement for the dialect. SQLite
// write transactions are always serializable: the DSN makes them take the
// write lock at BEGIN, so the driver default is used.
func (d Dialect) txOptions(level Isolation) *sql.TxOptions {
	if d == Postgres && level == Serializable {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}
