package store

import (
	"context"
	"fmt"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

// PositiveLotsBefore returns every lot of a live item that still holds stock
// and expires strictly before cutoff.
func PositiveLotsBefore(ctx context.Context, q db.Querier, cutoff model.Date) ([]model.ExpiryWarning, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT i.id, i.name, i.unit, mi.expiration, SUM(mi.amount) AS remaining
		 FROM move_item mi
		 JOIN item i ON i.id = mi.item_id
		 WHERE i.deleted_at IS NULL AND mi.expiration < ?
		 GROUP BY i.id, i.name, i.unit, mi.expiration
		 HAVING SUM(mi.amount) > 0`, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("listing expiring lots: %w", err)
	}
	defer rows.Close()

	var warnings []model.ExpiryWarning
	for rows.Next() {
		var w model.ExpiryWarning
		if err := rows.Scan(&w.ItemID, &w.ItemName, &w.Unit, &w.Expiration, &w.Remaining); err != nil {
			return nil, fmt.Errorf("scanning expiring lot: %w", err)
		}
		warnings = append(warnings, w)
	}
	return warnings, rows.Err()
}

// LedgerFacts returns every ledger line of live items joined with its move's
// time and mover.
func LedgerFacts(ctx context.Context, q db.Querier) ([]model.LedgerFact, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT mi.item_id, mi.amount, m.time, m.account_id
		 FROM move_item mi
		 JOIN move m ON m.id = mi.move_id
		 JOIN item i ON i.id = mi.item_id
		 WHERE i.deleted_at IS NULL`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	defer rows.Close()

	var facts []model.LedgerFact
	for rows.Next() {
		var f model.LedgerFact
		if err := rows.Scan(&f.ItemID, &f.Amount, &f.MovedAt, &f.AccountID); err != nil {
			return nil, fmt.Errorf("scanning ledger line: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
