package model

import "time"

// Item represents a consumable item type tracked by quantity.
type Item struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Barcode    string     `json:"barcode,omitempty"`
	MinAmount  int        `json:"min_amount"`
	CurAmount  int        `json:"cur_amount"`
	Unit       string     `json:"unit,omitempty"`
	Note       string     `json:"note,omitempty"`
	CategoryID *int64     `json:"category_id,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// ItemPatch carries the descriptive fields of an item that a caller wants to
// change. Nil fields keep their previous value. A CategoryID pointing at 0
// clears the category.
type ItemPatch struct {
	Name       *string `json:"name,omitempty"`
	Barcode    *string `json:"barcode,omitempty"`
	MinAmount  *int    `json:"min_amount,omitempty"`
	Unit       *string `json:"unit,omitempty"`
	Note       *string `json:"note,omitempty"`
	CategoryID *int64  `json:"category_id,omitempty"`
}

// Apply returns a copy of item with the patch applied. Quantity is never
// part of a patch.
func (p ItemPatch) Apply(item Item) Item {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Barcode != nil {
		item.Barcode = *p.Barcode
	}
	if p.MinAmount != nil {
		item.MinAmount = *p.MinAmount
	}
	if p.Unit != nil {
		item.Unit = *p.Unit
	}
	if p.Note != nil {
		item.Note = *p.Note
	}
	if p.CategoryID != nil {
		if *p.CategoryID == 0 {
			item.CategoryID = nil
		} else {
			id := *p.CategoryID
			item.CategoryID = &id
		}
	}
	return item
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	CategoryID int64
	Query      string
}

// CustomAttribute is a free-form (name, content) pair attached to an item.
// The pair itself is the identity.
type CustomAttribute struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
