package model

import "time"

// ExpiryWarning is a lot with stock left whose expiration is before the
// warning cutoff.
type ExpiryWarning struct {
	ItemID     int64  `json:"item_id"`
	ItemName   string `json:"item_name"`
	Unit       string `json:"unit,omitempty"`
	Expiration Date   `json:"expiration"`
	Remaining  int    `json:"remaining"`
}

// ConsumptionRecord summarizes how an item is used. Nil values mean the item
// had no matching activity, as opposed to zero.
type ConsumptionRecord struct {
	ItemID        int64    `json:"item_id"`
	ItemName      string   `json:"item_name"`
	LastMonth     *int     `json:"last_month"`
	AvgMonth      *float64 `json:"avg_month"`
	AvgMonthTrash *float64 `json:"avg_month_trash"`
}

// ProjectionDrift reports an item whose cached quantity differs from the sum
// of its ledger lines.
type ProjectionDrift struct {
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	CurAmount int    `json:"cur_amount"`
	LedgerSum int    `json:"ledger_sum"`
}

// LedgerFact is one ledger line reduced to what the consumption overview
// needs.
type LedgerFact struct {
	ItemID    int64
	Amount    int
	MovedAt   time.Time
	AccountID int64
}
