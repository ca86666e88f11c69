package store

import (
	"context"
	"fmt"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

// ListAttributes returns the custom attributes of an item.
func ListAttributes(ctx context.Context, q db.Querier, itemID int64) ([]model.CustomAttribute, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, content FROM attribute WHERE item_id = ? ORDER BY name, content`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing attributes: %w", err)
	}
	defer rows.Close()

	var attrs []model.CustomAttribute
	for rows.Next() {
		var a model.CustomAttribute
		if err := rows.Scan(&a.Name, &a.Content); err != nil {
			return nil, fmt.Errorf("scanning attribute: %w", err)
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// AddAttribute attaches an attribute to an item. Adding a pair the item
// already has is a no-op.
func AddAttribute(ctx context.Context, q db.Querier, itemID int64, attr model.CustomAttribute) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO attribute (item_id, name, content) VALUES (?, ?, ?)
		 ON CONFLICT (item_id, name, content) DO NOTHING`,
		itemID, attr.Name, attr.Content,
	)
	if err != nil {
		return fmt.Errorf("adding attribute: %w", err)
	}
	return nil
}

// RemoveAttribute detaches an attribute from an item. It fails with ErrNoRows
// if the item does not have the pair.
func RemoveAttribute(ctx context.Context, q db.Querier, itemID int64, attr model.CustomAttribute) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM attribute WHERE item_id = ? AND name = ? AND content = ?`,
		itemID, attr.Name, attr.Content,
	)
	if err != nil {
		return fmt.Errorf("removing attribute: %w", err)
	}
	return expectOneRow(result, "removing attribute")
}
