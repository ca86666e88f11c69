package report

import (
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// daysPerMonth is the bucket width of the consumption report.
const daysPerMonth = 30

// BucketedFact is a ledger line tagged with how many 30-day months ago it
// happened.
type BucketedFact struct {
	model.LedgerFact
	MonthsBack int
}

// BucketFacts assigns every fact to a month bucket relative to now. Bucket 0
// is the last 30 days.
func BucketFacts(facts []model.LedgerFact, now time.Time) []BucketedFact {
	today := model.DateOf(now.UTC()).Time()
	out := make([]BucketedFact, 0, len(facts))
	for _, f := range facts {
		day := model.DateOf(f.MovedAt.UTC()).Time()
		days := int(today.Sub(day).Hours() / 24)
		if days < 0 {
			days = -days
		}
		out = append(out, BucketedFact{LedgerFact: f, MonthsBack: days / daysPerMonth})
	}
	return out
}

// ItemTotals is the per-item reduction of bucketed facts. Quantities are
// positive.
type ItemTotals struct {
	LastMonth       int
	Used            int
	Trashed         int
	MaxSupplyBucket int
	HasSupply       bool
	HasUse          bool
	HasLastMonth    bool
	HasTrash        bool
}

// ReduceByItem folds bucketed facts per item. Ordinary consumption is a
// negative line moved by anyone but the system account; disposal is a
// negative line moved by the system account; supply is any positive line.
func ReduceByItem(facts []BucketedFact, systemAccountID int64) map[int64]*ItemTotals {
	totals := make(map[int64]*ItemTotals)
	for _, f := range facts {
		t := totals[f.ItemID]
		if t == nil {
			t = &ItemTotals{}
			totals[f.ItemID] = t
		}

		switch {
		case f.Amount > 0:
			if !t.HasSupply || f.MonthsBack > t.MaxSupplyBucket {
				t.MaxSupplyBucket = f.MonthsBack
			}
			t.HasSupply = true
		case f.AccountID == systemAccountID:
			t.Trashed -= f.Amount
			t.HasTrash = true
		default:
			t.Used -= f.Amount
			t.HasUse = true
			if f.MonthsBack == 0 {
				t.LastMonth -= f.Amount
				t.HasLastMonth = true
			}
		}
	}
	return totals
}

// Record turns the totals of an item into a report row. Averages spread the
// totals over the months since the oldest supply; they are null without
// supply or without matching activity.
func (t *ItemTotals) Record(item model.Item) model.ConsumptionRecord {
	rec := model.ConsumptionRecord{ItemID: item.ID, ItemName: item.Name}
	if t == nil {
		return rec
	}

	if t.HasLastMonth {
		v := t.LastMonth
		rec.LastMonth = &v
	}
	if !t.HasSupply {
		return rec
	}

	months := float64(t.MaxSupplyBucket + 1)
	if t.HasUse {
		v := float64(t.Used) / months
		rec.AvgMonth = &v
	}
	if t.HasTrash {
		v := float64(t.Trashed) / months
		rec.AvgMonthTrash = &v
	}
	return rec
}
