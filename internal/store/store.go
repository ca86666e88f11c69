// Package store holds the SQL for the directory and the stock ledger. Every
// function takes a db.Querier so callers decide the transaction boundary.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// ErrNoRows is returned by mutations that were expected to touch exactly
// one row but found none.
var ErrNoRows = errors.New("no matching row")

func expectOneRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoRows)
	}
	return nil
}

// searchKey folds a name for case-insensitive matching. Folding happens in
// Go so both dialects compare the same bytes, including non-ASCII letters.
func searchKey(s string) string {
	return cases.Fold().String(s)
}

// likeEscaper escapes LIKE wildcards; queries pair it with ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(searchKey(s)) + "%"
}
