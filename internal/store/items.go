package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

const itemColumns = `id, name, barcode, min_amount, cur_amount, unit, note, category, deleted_at`

// CreateItem inserts a new item with zero quantity and returns its ID.
func CreateItem(ctx context.Context, q db.Querier, item model.Item) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO item (name, barcode, min_amount, cur_amount, unit, note, search_name, category)
		 VALUES (?, ?, ?, 0, ?, ?, ?, ?) RETURNING id`,
		item.Name, item.Barcode, item.MinAmount, item.Unit, item.Note, searchKey(item.Name), item.CategoryID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}
	return id, nil
}

// GetItem returns an item by ID, including tombstoned items.
func GetItem(ctx context.Context, q db.Querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM item WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all live items, optionally filtered by category or by a
// case-insensitive name substring or exact barcode.
func ListItems(ctx context.Context, q db.Querier, filter model.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM item WHERE deleted_at IS NULL`
	var args []any

	if filter.CategoryID > 0 {
		query += ` AND category = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.Query != "" {
		query += ` AND (search_name LIKE ? ESCAPE '\' OR barcode = ?)`
		args = append(args, containsPattern(filter.Query), filter.Query)
	}

	query += ` ORDER BY name, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// LowStockItems returns live items whose quantity is at or below their
// reorder threshold.
func LowStockItems(ctx context.Context, q db.Querier) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM item
		 WHERE deleted_at IS NULL AND cur_amount <= min_amount
		 ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing low stock items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// UpdateItem writes an item's descriptive fields. The cached quantity is not
// touched.
func UpdateItem(ctx context.Context, q db.Querier, item model.Item) error {
	result, err := q.ExecContext(ctx,
		`UPDATE item SET name = ?, barcode = ?, min_amount = ?, unit = ?, note = ?, search_name = ?, category = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		item.Name, item.Barcode, item.MinAmount, item.Unit, item.Note, searchKey(item.Name), item.CategoryID, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return expectOneRow(result, "updating item")
}

// TombstoneItem marks an item as deleted. Its ledger lines stay in place.
func TombstoneItem(ctx context.Context, q db.Querier, id int64) error {
	result, err := q.ExecContext(ctx,
		`UPDATE item SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return expectOneRow(result, "deleting item")
}

// CountItemsInCategory counts items (live or tombstoned) referencing a
// category.
func CountItemsInCategory(ctx context.Context, q db.Querier, categoryID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM item WHERE category = ?`, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting category items: %w", err)
	}
	return count, nil
}

// ReassignItemsCategory repoints every item of one category to another and
// returns how many items moved.
func ReassignItemsCategory(ctx context.Context, q db.Querier, from, to int64) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE item SET category = ? WHERE category = ?`, to, from,
	)
	if err != nil {
		return 0, fmt.Errorf("reassigning items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassigning items: %w", err)
	}
	return n, nil
}

func scanItem(row *sql.Row) (*model.Item, error) {
	item := &model.Item{}
	err := row.Scan(&item.ID, &item.Name, &item.Barcode, &item.MinAmount, &item.CurAmount,
		&item.Unit, &item.Note, &item.CategoryID, &item.DeletedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Barcode, &item.MinAmount, &item.CurAmount,
			&item.Unit, &item.Note, &item.CategoryID, &item.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
