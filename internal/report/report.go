// Package report derives read-only views from the stock ledger: low stock,
// expiring lots, consumption trends and projection consistency.
package report

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// ErrUnavailable is wrapped by every report failure.
var ErrUnavailable = errors.New("report not available")

// DefaultExpiryWarningDays is how far ahead ExpiryWarnings looks by default.
const DefaultExpiryWarningDays = 14

// DefaultLanguage orders item names when none is configured.
var DefaultLanguage = language.Slovak

// Options configures an Engine.
type Options struct {
	SystemAccountID int64
	// ExpiryWarningDays is the default expiry window. Nil means
	// DefaultExpiryWarningDays; zero warns only about lots already expired.
	ExpiryWarningDays *int
	Language          language.Tag
	Now               func() time.Time
	Logger            *slog.Logger
}

// Engine computes reports against the store.
type Engine struct {
	db              *db.DB
	systemAccountID int64
	warningDays     int
	lang            language.Tag
	now             func() time.Time
	log             *slog.Logger
}

// NewEngine creates a report engine.
func NewEngine(database *db.DB, opts Options) *Engine {
	warningDays := DefaultExpiryWarningDays
	if opts.ExpiryWarningDays != nil && *opts.ExpiryWarningDays >= 0 {
		warningDays = *opts.ExpiryWarningDays
	}
	if opts.Language == language.Und {
		opts.Language = DefaultLanguage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		db:              database,
		systemAccountID: opts.SystemAccountID,
		warningDays:     warningDays,
		lang:            opts.Language,
		now:             opts.Now,
		log:             opts.Logger,
	}
}

func (e *Engine) fail(report string, err error) error {
	e.log.Error("report failed", "report", report, "error", err)
	return fmt.Errorf("%s: %w: %w", report, ErrUnavailable, err)
}

// collator returns a fresh collator; collate.Collator is not safe for
// concurrent use.
func (e *Engine) collator() *collate.Collator {
	return collate.New(e.lang, collate.IgnoreCase)
}

// LowStock lists live items at or below their reorder threshold.
func (e *Engine) LowStock(ctx context.Context) ([]model.Item, error) {
	items, err := store.LowStockItems(ctx, e.db)
	if err != nil {
		return nil, e.fail("low stock", err)
	}

	c := e.collator()
	slices.SortStableFunc(items, func(a, b model.Item) int {
		return c.CompareString(a.Name, b.Name)
	})
	return nonNil(items), nil
}

// DefaultCutoff is today plus the configured warning window.
func (e *Engine) DefaultCutoff() model.Date {
	return model.DateOf(e.now()).AddDays(e.warningDays)
}

// ExpiryWarnings lists lots that still hold stock and expire strictly before
// cutoff, by item name and then expiration. A zero cutoff uses
// DefaultCutoff.
func (e *Engine) ExpiryWarnings(ctx context.Context, cutoff model.Date) ([]model.ExpiryWarning, error) {
	if cutoff.IsZero() {
		cutoff = e.DefaultCutoff()
	}

	warnings, err := store.PositiveLotsBefore(ctx, e.db, cutoff)
	if err != nil {
		return nil, e.fail("expiry warnings", err)
	}

	c := e.collator()
	slices.SortFunc(warnings, func(a, b model.ExpiryWarning) int {
		if n := c.CompareString(a.ItemName, b.ItemName); n != 0 {
			return n
		}
		if a.Expiration != b.Expiration {
			if a.Expiration.Before(b.Expiration) {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.ItemID, b.ItemID)
	})
	return nonNil(warnings), nil
}

// ConsumptionOverview reports last month's consumption and the monthly
// averages of consumption and disposal for every live item.
func (e *Engine) ConsumptionOverview(ctx context.Context) ([]model.ConsumptionRecord, error) {
	items, err := store.ListItems(ctx, e.db, model.ItemFilter{})
	if err != nil {
		return nil, e.fail("consumption", err)
	}
	facts, err := store.LedgerFacts(ctx, e.db)
	if err != nil {
		return nil, e.fail("consumption", err)
	}

	totals := ReduceByItem(BucketFacts(facts, e.now()), e.systemAccountID)
	records := make([]model.ConsumptionRecord, 0, len(items))
	for _, item := range items {
		records = append(records, totals[item.ID].Record(item))
	}

	c := e.collator()
	slices.SortStableFunc(records, func(a, b model.ConsumptionRecord) int {
		return c.CompareString(a.ItemName, b.ItemName)
	})
	return records, nil
}

// Consistency lists items whose cached quantity disagrees with the ledger.
func (e *Engine) Consistency(ctx context.Context) ([]model.ProjectionDrift, error) {
	drift, err := store.ProjectionDrift(ctx, e.db)
	if err != nil {
		return nil, e.fail("consistency", err)
	}
	return nonNil(drift), nil
}

// Summary bundles the dashboard reports.
type Summary struct {
	LowStock    []model.Item              `json:"low_stock"`
	Expiring    []model.ExpiryWarning     `json:"expiring"`
	Consumption []model.ConsumptionRecord `json:"consumption"`
	Cutoff      model.Date                `json:"cutoff"`
}

// Summary computes the low stock, expiry and consumption reports
// concurrently. It fails if any of them fails.
func (e *Engine) Summary(ctx context.Context) (*Summary, error) {
	sum := &Summary{Cutoff: e.DefaultCutoff()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sum.LowStock, err = e.LowStock(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sum.Expiring, err = e.ExpiryWarnings(gctx, sum.Cutoff)
		return err
	})
	g.Go(func() error {
		var err error
		sum.Consumption, err = e.ConsumptionOverview(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sum, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
