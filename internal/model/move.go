package model

import "time"

// Move is one operator action grouping one or more ledger lines committed
// together.
type Move struct {
	ID        int64      `json:"id"`
	AccountID int64      `json:"account_id"`
	Time      time.Time  `json:"time"`
	Note      string     `json:"note,omitempty"`
	Lines     []MoveItem `json:"lines,omitempty"`
}

// MoveItem is a ledger line: a signed quantity change of one item in one lot.
// Positive amounts are supply, negative amounts are offtake or disposal.
type MoveItem struct {
	MoveID     int64 `json:"move_id"`
	ItemID     int64 `json:"item_id"`
	Amount     int   `json:"amount"`
	Expiration Date  `json:"expiration"`
}

// Lot is the remaining balance of all ledger lines sharing an item and an
// expiration date.
type Lot struct {
	ItemID     int64 `json:"item_id"`
	Expiration Date  `json:"expiration"`
	Remaining  int   `json:"remaining"`
}

// HistoryEntry is a ledger line joined with its move and mover.
type HistoryEntry struct {
	MoveID     int64     `json:"move_id"`
	Time       time.Time `json:"time"`
	AccountID  int64     `json:"account_id"`
	MoverName  string    `json:"mover_name"`
	Amount     int       `json:"amount"`
	Expiration Date      `json:"expiration"`
	Note       string    `json:"note,omitempty"`
}
