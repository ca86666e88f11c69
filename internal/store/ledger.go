package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

// ItemQuantity returns the cached quantity of a live item. ok is false if the
// item does not exist or is tombstoned.
func ItemQuantity(ctx context.Context, q db.Querier, itemID int64) (qty int, ok bool, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT cur_amount FROM item WHERE id = ? AND deleted_at IS NULL`, itemID,
	).Scan(&qty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading item quantity: %w", err)
	}
	return qty, true, nil
}

// AdjustProjection adds delta to an item's cached quantity. It must run in
// the same transaction as the ledger lines carrying the same delta.
func AdjustProjection(ctx context.Context, q db.Querier, itemID int64, delta int) error {
	result, err := q.ExecContext(ctx,
		`UPDATE item SET cur_amount = cur_amount + ? WHERE id = ? AND deleted_at IS NULL`,
		delta, itemID,
	)
	if err != nil {
		return fmt.Errorf("updating item quantity: %w", err)
	}
	return expectOneRow(result, "updating item quantity")
}

// InsertMove records a move header and returns its ID.
func InsertMove(ctx context.Context, q db.Querier, accountID int64, at time.Time, note string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO move (account_id, time, note) VALUES (?, ?, ?) RETURNING id`,
		accountID, at.UTC(), note,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("recording move: %w", err)
	}
	return id, nil
}

// InsertMoveItem appends a ledger line to a move.
func InsertMoveItem(ctx context.Context, q db.Querier, line model.MoveItem) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO move_item (move_id, item_id, amount, expiration) VALUES (?, ?, ?, ?)`,
		line.MoveID, line.ItemID, line.Amount, line.Expiration,
	)
	if err != nil {
		return fmt.Errorf("recording move line: %w", err)
	}
	return nil
}

// LotBalances recomputes, from the ledger, the remaining quantity of every
// lot of an item that still holds stock, oldest expiration first.
func LotBalances(ctx context.Context, q db.Querier, itemID int64) ([]model.Lot, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT expiration, SUM(amount) FROM move_item
		 WHERE item_id = ?
		 GROUP BY expiration
		 HAVING SUM(amount) > 0
		 ORDER BY expiration`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("computing lot balances: %w", err)
	}
	defer rows.Close()

	var lots []model.Lot
	for rows.Next() {
		lot := model.Lot{ItemID: itemID}
		if err := rows.Scan(&lot.Expiration, &lot.Remaining); err != nil {
			return nil, fmt.Errorf("scanning lot: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// GetMove returns a move with its ledger lines.
func GetMove(ctx context.Context, q db.Querier, id int64) (*model.Move, error) {
	m := &model.Move{}
	err := q.QueryRowContext(ctx,
		`SELECT id, account_id, time, note FROM move WHERE id = ?`, id,
	).Scan(&m.ID, &m.AccountID, &m.Time, &m.Note)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting move: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT move_id, item_id, amount, expiration FROM move_item
		 WHERE move_id = ? ORDER BY expiration`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting move lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.MoveItem
		if err := rows.Scan(&line.MoveID, &line.ItemID, &line.Amount, &line.Expiration); err != nil {
			return nil, fmt.Errorf("scanning move line: %w", err)
		}
		m.Lines = append(m.Lines, line)
	}
	return m, rows.Err()
}

// ItemHistory returns every ledger line of an item with its mover, newest
// first.
func ItemHistory(ctx context.Context, q db.Querier, itemID int64) ([]model.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT m.id, m.time, m.account_id, a.name, a.surname, mi.amount, mi.expiration, m.note
		 FROM move_item mi
		 JOIN move m ON m.id = mi.move_id
		 JOIN account a ON a.id = m.account_id
		 WHERE mi.item_id = ?
		 ORDER BY m.time DESC, m.id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var mover model.Account
		if err := rows.Scan(&e.MoveID, &e.Time, &e.AccountID, &mover.Name, &mover.Surname,
			&e.Amount, &e.Expiration, &e.Note); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.MoverName = mover.FullName()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountLedgerLines counts ledger lines, optionally for one item (itemID > 0).
func CountLedgerLines(ctx context.Context, q db.Querier, itemID int64) (int, error) {
	query := `SELECT COUNT(*) FROM move_item`
	var args []any
	if itemID > 0 {
		query += ` WHERE item_id = ?`
		args = append(args, itemID)
	}

	var count int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting ledger lines: %w", err)
	}
	return count, nil
}

// ProjectionDrift lists live items whose cached quantity differs from the sum
// of their ledger lines.
func ProjectionDrift(ctx context.Context, q db.Querier) ([]model.ProjectionDrift, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT i.id, i.name, i.cur_amount, COALESCE(SUM(mi.amount), 0) AS ledger_sum
		 FROM item i
		 LEFT JOIN move_item mi ON mi.item_id = i.id
		 WHERE i.deleted_at IS NULL
		 GROUP BY i.id, i.name, i.cur_amount
		 HAVING i.cur_amount <> COALESCE(SUM(mi.amount), 0)
		 ORDER BY i.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("checking projection: %w", err)
	}
	defer rows.Close()

	var drift []model.ProjectionDrift
	for rows.Next() {
		var d model.ProjectionDrift
		if err := rows.Scan(&d.ItemID, &d.ItemName, &d.CurAmount, &d.LedgerSum); err != nil {
			return nil, fmt.Errorf("scanning projection drift: %w", err)
		}
		drift = append(drift, d)
	}
	return drift, rows.Err()
}

// RebuildProjection recomputes every item's cached quantity from the ledger
// and returns how many items were corrected.
func RebuildProjection(ctx context.Context, q db.Querier) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE item SET cur_amount = (
		     SELECT COALESCE(SUM(mi.amount), 0) FROM move_item mi WHERE mi.item_id = item.id
		 )
		 WHERE cur_amount <> (
		     SELECT COALESCE(SUM(mi.amount), 0) FROM move_item mi WHERE mi.item_id = item.id
		 )`,
	)
	if err != nil {
		return 0, fmt.Errorf("rebuilding projection: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rebuilding projection: %w", err)
	}
	return n, nil
}
