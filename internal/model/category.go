package model

// Category groups items. Categories form a tree through SubCatOf.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	SubCatOf *int64 `json:"sub_cat_of,omitempty"`
	Color    string `json:"color,omitempty"`
	Note     string `json:"note,omitempty"`
}

// CategoryPatch is a sparse update of a category. A SubCatOf pointing at 0
// moves the category to the root.
type CategoryPatch struct {
	Name     *string `json:"name,omitempty"`
	SubCatOf *int64  `json:"sub_cat_of,omitempty"`
	Color    *string `json:"color,omitempty"`
	Note     *string `json:"note,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.SubCatOf != nil {
		if *p.SubCatOf == 0 {
			c.SubCatOf = nil
		} else {
			id := *p.SubCatOf
			c.SubCatOf = &id
		}
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Note != nil {
		c.Note = *p.Note
	}
	return c
}
