package inventory

import (
	"context"
	"strings"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

type categoryRules struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"max=32"`
}

// CreateCategory adds a category. Names are unique.
func (s *Service) CreateCategory(ctx context.Context, sess Session, c model.Category) (*model.Category, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(c.Name)
	if err := s.check(categoryRules{Name: c.Name, Color: c.Color}); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, "create category", db.Serializable, func(tx *db.Tx) error {
		taken, err := store.CategoryNameTaken(ctx, tx, c.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return conflict("category %q already exists", c.Name)
		}
		if err := requireCategory(ctx, tx, c.SubCatOf); err != nil {
			return err
		}

		id, err := store.CreateCategory(ctx, tx, c)
		c.ID = id
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("category created", "account", sess.AccountID(), "category", c.ID, "name", c.Name)
	return &c, nil
}

// UpdateCategory applies a sparse edit. A category cannot become its own
// ancestor.
func (s *Service) UpdateCategory(ctx context.Context, sess Session, id int64, patch model.CategoryPatch) (*model.Category, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	var updated model.Category
	err := s.inTx(ctx, "update category", db.Serializable, func(tx *db.Tx) error {
		current, err := store.GetCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound("category", id)
		}

		updated = patch.Apply(*current)
		updated.Name = strings.TrimSpace(updated.Name)
		if err := s.check(categoryRules{Name: updated.Name, Color: updated.Color}); err != nil {
			return err
		}

		taken, err := store.CategoryNameTaken(ctx, tx, updated.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return conflict("category %q already exists", updated.Name)
		}
		if err := requireCategory(ctx, tx, updated.SubCatOf); err != nil {
			return err
		}
		if err := checkNoCycle(ctx, tx, id, updated.SubCatOf); err != nil {
			return err
		}

		return store.UpdateCategory(ctx, tx, updated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("category updated", "account", sess.AccountID(), "category", id)
	return &updated, nil
}

// checkNoCycle walks up from parent and fails if it reaches id.
func checkNoCycle(ctx context.Context, q db.Querier, id int64, parent *int64) error {
	seen := map[int64]bool{}
	for parent != nil {
		if *parent == id {
			return invalid("sub_cat_of", "category cannot be placed under itself or its descendants")
		}
		if seen[*parent] {
			return nil
		}
		seen[*parent] = true

		c, err := store.GetCategory(ctx, q, *parent)
		if err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		parent = c.SubCatOf
	}
	return nil
}

// DeleteCategory removes a category. Items in it are moved to replacement,
// which is required when there are any. Child categories move up to the
// deleted category's parent.
func (s *Service) DeleteCategory(ctx context.Context, sess Session, id int64, replacement *int64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if replacement != nil && *replacement == id {
		return invalid("replacement", "must differ from the category being deleted")
	}

	var moved int64
	err := s.inTx(ctx, "delete category", db.Serializable, func(tx *db.Tx) error {
		current, err := store.GetCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound("category", id)
		}

		count, err := store.CountItemsInCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			if replacement == nil {
				return invalid("replacement", "category has items; a replacement category is required")
			}
			if err := requireCategory(ctx, tx, replacement); err != nil {
				return err
			}
			if moved, err = store.ReassignItemsCategory(ctx, tx, id, *replacement); err != nil {
				return err
			}
		}

		if err := store.ReparentCategories(ctx, tx, id, current.SubCatOf); err != nil {
			return err
		}
		return store.DeleteCategory(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("category deleted", "account", sess.AccountID(), "category", id, "items_moved", moved)
	return nil
}

// GetCategory returns a category by ID.
func (s *Service) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	c, err := store.GetCategory(ctx, s.db, id)
	if err != nil {
		return nil, s.classify("get category", err)
	}
	if c == nil {
		return nil, notFound("category", id)
	}
	return c, nil
}

// ListCategories returns every category ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := store.ListCategories(ctx, s.db)
	if err != nil {
		return nil, s.classify("list categories", err)
	}
	return categories, nil
}
