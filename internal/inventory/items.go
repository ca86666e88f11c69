package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// NewItem describes an item to create. Quantity always starts at zero.
type NewItem struct {
	model.ItemPatch
	Attributes []model.CustomAttribute `json:"attributes"`
}

// ItemUpdate is a sparse item edit together with attribute changes.
type ItemUpdate struct {
	model.ItemPatch
	AddAttributes    []model.CustomAttribute `json:"add_attributes"`
	RemoveAttributes []model.CustomAttribute `json:"remove_attributes"`
}

type itemRules struct {
	Name      string `json:"name" validate:"required,max=200"`
	Barcode   string `json:"barcode" validate:"max=64"`
	MinAmount int    `json:"min_amount" validate:"gte=0"`
	Unit      string `json:"unit" validate:"max=32"`
}

type attributeRules struct {
	Name    string `json:"name" validate:"required,max=100"`
	Content string `json:"content" validate:"max=500"`
}

func (s *Service) checkItem(item model.Item) error {
	return s.check(itemRules{
		Name:      strings.TrimSpace(item.Name),
		Barcode:   item.Barcode,
		MinAmount: item.MinAmount,
		Unit:      item.Unit,
	})
}

func (s *Service) checkAttributes(field string, attrs []model.CustomAttribute) error {
	for i, a := range attrs {
		if err := s.check(attributeRules{Name: strings.TrimSpace(a.Name), Content: a.Content}); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return invalid(fmt.Sprintf("%s[%d].%s", field, i, ve.Field), ve.Message)
			}
			return err
		}
	}
	return nil
}

// requireCategory fails with not-found unless id is nil or an existing
// category.
func requireCategory(ctx context.Context, q db.Querier, id *int64) error {
	if id == nil {
		return nil
	}
	c, err := store.GetCategory(ctx, q, *id)
	if err != nil {
		return err
	}
	if c == nil {
		return notFound("category", *id)
	}
	return nil
}

// CreateItem adds an item with zero quantity and its initial attributes.
func (s *Service) CreateItem(ctx context.Context, sess Session, in NewItem) (*model.Item, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	item := in.ItemPatch.Apply(model.Item{})
	item.Name = strings.TrimSpace(item.Name)
	if err := s.checkItem(item); err != nil {
		return nil, err
	}
	if err := s.checkAttributes("attributes", in.Attributes); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, "create item", db.ReadCommitted, func(tx *db.Tx) error {
		if err := requireCategory(ctx, tx, item.CategoryID); err != nil {
			return err
		}
		id, err := store.CreateItem(ctx, tx, item)
		if err != nil {
			return err
		}
		item.ID = id
		for _, a := range in.Attributes {
			if err := store.AddAttribute(ctx, tx, id, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	item.CurAmount = 0
	s.log.Info("item created", "account", sess.AccountID(), "item", item.ID, "name", item.Name)
	return &item, nil
}

// UpdateItem applies a sparse edit and attribute changes atomically. A pair
// may not be both added and removed in one call.
func (s *Service) UpdateItem(ctx context.Context, sess Session, id int64, in ItemUpdate) (*model.Item, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if err := s.checkAttributes("add_attributes", in.AddAttributes); err != nil {
		return nil, err
	}
	if err := s.checkAttributes("remove_attributes", in.RemoveAttributes); err != nil {
		return nil, err
	}
	removing := make(map[model.CustomAttribute]bool, len(in.RemoveAttributes))
	for _, a := range in.RemoveAttributes {
		removing[a] = true
	}
	for i, a := range in.AddAttributes {
		if removing[a] {
			return nil, invalid(fmt.Sprintf("add_attributes[%d]", i),
				fmt.Sprintf("attribute %s=%s is also being removed", a.Name, a.Content))
		}
	}

	var updated model.Item
	err := s.inTx(ctx, "update item", db.Serializable, func(tx *db.Tx) error {
		current, err := liveItem(ctx, tx, id)
		if err != nil {
			return err
		}

		updated = in.ItemPatch.Apply(*current)
		updated.Name = strings.TrimSpace(updated.Name)
		if err := s.checkItem(updated); err != nil {
			return err
		}
		if err := requireCategory(ctx, tx, updated.CategoryID); err != nil {
			return err
		}
		if err := store.UpdateItem(ctx, tx, updated); err != nil {
			return err
		}

		for _, a := range uniqueAttributes(in.RemoveAttributes) {
			err := store.RemoveAttribute(ctx, tx, id, a)
			if errors.Is(err, store.ErrNoRows) {
				return fmt.Errorf("attribute %s=%s on item %d: %w", a.Name, a.Content, id, ErrNotFound)
			}
			if err != nil {
				return err
			}
		}
		for _, a := range uniqueAttributes(in.AddAttributes) {
			if err := store.AddAttribute(ctx, tx, id, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item updated", "account", sess.AccountID(), "item", id)
	return &updated, nil
}

// uniqueAttributes drops repeated pairs, keeping the first occurrence.
func uniqueAttributes(attrs []model.CustomAttribute) []model.CustomAttribute {
	seen := make(map[model.CustomAttribute]bool, len(attrs))
	out := make([]model.CustomAttribute, 0, len(attrs))
	for _, a := range attrs {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// DeleteItem tombstones an item. Its ledger history is kept.
func (s *Service) DeleteItem(ctx context.Context, sess Session, id int64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}

	err := s.inTx(ctx, "delete item", db.ReadCommitted, func(tx *db.Tx) error {
		err := store.TombstoneItem(ctx, tx, id)
		if errors.Is(err, store.ErrNoRows) {
			return notFound("item", id)
		}
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("item deleted", "account", sess.AccountID(), "item", id)
	return nil
}

// GetItem returns a live item.
func (s *Service) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := liveItem(ctx, s.db, id)
	if err != nil {
		return nil, s.classify("get item", err)
	}
	return item, nil
}

// ListItems returns live items matching filter.
func (s *Service) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	items, err := store.ListItems(ctx, s.db, filter)
	if err != nil {
		return nil, s.classify("list items", err)
	}
	return items, nil
}

// ItemAttributes returns the custom attributes of a live item.
func (s *Service) ItemAttributes(ctx context.Context, id int64) ([]model.CustomAttribute, error) {
	if _, err := liveItem(ctx, s.db, id); err != nil {
		return nil, s.classify("item attributes", err)
	}
	attrs, err := store.ListAttributes(ctx, s.db, id)
	if err != nil {
		return nil, s.classify("item attributes", err)
	}
	return attrs, nil
}
