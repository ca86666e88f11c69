package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// SupplyInput adds a new lot of an item to stock.
type SupplyInput struct {
	ItemID     int64      `json:"item_id" validate:"gt=0"`
	Amount     int        `json:"amount" validate:"gt=0"`
	Expiration model.Date `json:"expiration" validate:"required"`
	Note       string     `json:"note" validate:"max=500"`
}

// Debit takes Amount units out of the lot identified by Expiration.
type Debit struct {
	Expiration model.Date `json:"expiration" validate:"required"`
	Amount     int        `json:"amount" validate:"gte=0"`
}

// OfftakeInput removes stock from one or more lots of an item. Disposal
// offtakes are recorded under the system account.
type OfftakeInput struct {
	ItemID   int64   `json:"item_id" validate:"gt=0"`
	Debits   []Debit `json:"debits" validate:"required,min=1,dive"`
	Disposal bool    `json:"disposal"`
	Note     string  `json:"note" validate:"max=500"`
}

// Supply records a stock-in of a single lot and returns the committed move.
func (s *Service) Supply(ctx context.Context, sess Session, in SupplyInput) (*model.Move, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		s.metrics.ObserveRejection("validation")
		return nil, err
	}

	var move *model.Move
	err := s.inTx(ctx, "supply", db.ReadCommitted, func(tx *db.Tx) error {
		if _, err := liveItem(ctx, tx, in.ItemID); err != nil {
			return err
		}
		if err := store.AdjustProjection(ctx, tx, in.ItemID, in.Amount); err != nil {
			return err
		}

		m, err := s.recordMove(ctx, tx, sess.AccountID(), in.ItemID, in.Note, []Debit{
			{Expiration: in.Expiration, Amount: in.Amount},
		}, 1)
		if err != nil {
			return err
		}
		move = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveSupply(in.Amount)
	s.log.Info("stock supplied",
		"account", sess.AccountID(),
		"item", in.ItemID,
		"amount", in.Amount,
		"expiration", in.Expiration.String(),
		"move", move.ID,
	)
	return move, nil
}

// Offtake removes stock from the requested lots. Either every debit is
// applied or none is.
func (s *Service) Offtake(ctx context.Context, sess Session, in OfftakeInput) (*model.Move, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		s.metrics.ObserveRejection("validation")
		return nil, err
	}
	debits, total, err := normalizeDebits(in.Debits)
	if err != nil {
		s.metrics.ObserveRejection("validation")
		return nil, err
	}

	mover := sess.AccountID()
	if in.Disposal {
		if s.systemAccountID <= 0 {
			return nil, &StoreError{Op: "offtake", Err: errors.New("system account is not initialized")}
		}
		mover = s.systemAccountID
	}

	var move *model.Move
	err = s.inTx(ctx, "offtake", db.Serializable, func(tx *db.Tx) error {
		move = nil
		if _, err := liveItem(ctx, tx, in.ItemID); err != nil {
			return err
		}

		lots, err := store.LotBalances(ctx, tx, in.ItemID)
		if err != nil {
			return err
		}
		available := make(map[model.Date]int, len(lots))
		for _, lot := range lots {
			available[lot.Expiration] = lot.Remaining
		}
		for _, d := range debits {
			if have := available[d.Expiration]; have < d.Amount {
				return &InsufficientStockError{
					ItemID:     in.ItemID,
					Expiration: d.Expiration,
					Requested:  d.Amount,
					Available:  have,
				}
			}
		}

		if err := store.AdjustProjection(ctx, tx, in.ItemID, -total); err != nil {
			return err
		}
		m, err := s.recordMove(ctx, tx, mover, in.ItemID, in.Note, debits, -1)
		if err != nil {
			return err
		}
		move = m
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.metrics.ObserveRejection("insufficient_stock")
		}
		return nil, err
	}

	kind := metrics.KindConsumption
	if in.Disposal {
		kind = metrics.KindDisposal
	}
	s.metrics.ObserveOfftake(in.Disposal, total)
	s.log.Info("stock taken off",
		"account", sess.AccountID(),
		"mover", mover,
		"kind", kind,
		"item", in.ItemID,
		"amount", total,
		"lots", len(debits),
		"move", move.ID,
	)
	return move, nil
}

// recordMove inserts a move and one ledger line per debit, with amounts
// multiplied by sign.
func (s *Service) recordMove(ctx context.Context, tx *db.Tx, mover, itemID int64, note string, debits []Debit, sign int) (*model.Move, error) {
	at := s.now().UTC()
	moveID, err := store.InsertMove(ctx, tx, mover, at, note)
	if err != nil {
		return nil, err
	}

	move := &model.Move{ID: moveID, AccountID: mover, Time: at, Note: note}
	for _, d := range debits {
		line := model.MoveItem{
			MoveID:     moveID,
			ItemID:     itemID,
			Amount:     sign * d.Amount,
			Expiration: d.Expiration,
		}
		if err := store.InsertMoveItem(ctx, tx, line); err != nil {
			return nil, err
		}
		move.Lines = append(move.Lines, line)
	}
	return move, nil
}

// normalizeDebits drops zero debits and rejects repeated lots.
func normalizeDebits(in []Debit) ([]Debit, int, error) {
	seen := make(map[model.Date]bool, len(in))
	out := make([]Debit, 0, len(in))
	total := 0
	for i, d := range in {
		if d.Amount == 0 {
			continue
		}
		if seen[d.Expiration] {
			return nil, 0, invalid(fmt.Sprintf("debits[%d].expiration", i),
				"lot "+d.Expiration.String()+" is listed more than once")
		}
		seen[d.Expiration] = true
		out = append(out, d)
		total += d.Amount
	}
	if len(out) == 0 {
		return nil, 0, invalid("debits", "at least one debit must be non-zero")
	}
	return out, total, nil
}

// ItemLots returns the lots of an item that still hold stock.
func (s *Service) ItemLots(ctx context.Context, itemID int64) ([]model.Lot, error) {
	if _, err := liveItem(ctx, s.db, itemID); err != nil {
		return nil, s.classify("item lots", err)
	}
	lots, err := store.LotBalances(ctx, s.db, itemID)
	if err != nil {
		return nil, s.classify("item lots", err)
	}
	return lots, nil
}

// ItemHistory returns the ledger lines of an item, newest first. Tombstoned
// items keep their history.
func (s *Service) ItemHistory(ctx context.Context, itemID int64) ([]model.HistoryEntry, error) {
	item, err := store.GetItem(ctx, s.db, itemID)
	if err != nil {
		return nil, s.classify("item history", err)
	}
	if item == nil {
		return nil, notFound("item", itemID)
	}
	history, err := store.ItemHistory(ctx, s.db, itemID)
	if err != nil {
		return nil, s.classify("item history", err)
	}
	return history, nil
}

// VerifyProjection lists every item whose cached quantity disagrees with its
// ledger.
func (s *Service) VerifyProjection(ctx context.Context) ([]model.ProjectionDrift, error) {
	drift, err := store.ProjectionDrift(ctx, s.db)
	if err != nil {
		return nil, s.classify("verify projection", err)
	}
	return drift, nil
}

// RebuildProjection recomputes every cached quantity from the ledger and
// returns the number of items that were corrected.
func (s *Service) RebuildProjection(ctx context.Context, sess Session) (int64, error) {
	if err := requireAdmin(sess); err != nil {
		return 0, err
	}

	var fixed int64
	err := s.inTx(ctx, "rebuild projection", db.Serializable, func(tx *db.Tx) error {
		n, err := store.RebuildProjection(ctx, tx)
		fixed = n
		return err
	})
	if err != nil {
		return 0, err
	}

	if fixed > 0 {
		s.log.Warn("projection rebuilt", "account", sess.AccountID(), "corrected", fixed)
	} else {
		s.log.Info("projection rebuilt", "account", sess.AccountID(), "corrected", 0)
	}
	return fixed, nil
}
