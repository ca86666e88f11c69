package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

// CreateCategory inserts a category and returns its ID.
func CreateCategory(ctx context.Context, q db.Querier, c model.Category) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO category (name, subcat_of, color, note) VALUES (?, ?, ?, ?) RETURNING id`,
		c.Name, c.SubCatOf, c.Color, c.Note,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating category: %w", err)
	}
	return id, nil
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, q db.Querier, id int64) (*model.Category, error) {
	c := &model.Category{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, subcat_of, color, note FROM category WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.SubCatOf, &c.Color, &c.Note)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// CategoryNameTaken reports whether another category already uses name.
func CategoryNameTaken(ctx context.Context, q db.Querier, name string, exceptID int64) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM category WHERE name = ? AND id <> ?`, name, exceptID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking category name: %w", err)
	}
	return count > 0, nil
}

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, q db.Querier) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, subcat_of, color, note FROM category ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SubCatOf, &c.Color, &c.Note); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory writes every field of a category.
func UpdateCategory(ctx context.Context, q db.Querier, c model.Category) error {
	result, err := q.ExecContext(ctx,
		`UPDATE category SET name = ?, subcat_of = ?, color = ?, note = ? WHERE id = ?`,
		c.Name, c.SubCatOf, c.Color, c.Note, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	return expectOneRow(result, "updating category")
}

// ReparentCategories moves every direct child of parent under newParent
// (nil for root).
func ReparentCategories(ctx context.Context, q db.Querier, parent int64, newParent *int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE category SET subcat_of = ? WHERE subcat_of = ?`, newParent, parent,
	)
	if err != nil {
		return fmt.Errorf("reparenting categories: %w", err)
	}
	return nil
}

// DeleteCategory removes a category row. Callers must reassign references
// first.
func DeleteCategory(ctx context.Context, q db.Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM category WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return expectOneRow(result, "deleting category")
}
