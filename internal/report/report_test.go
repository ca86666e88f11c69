package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

type ledger struct {
	t        *testing.T
	db       *db.DB
	system   int64
	operator int64
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	ctx := context.Background()
	database := db.NewTestDB(t)

	systemID, err := store.CreateAccount(ctx, database, model.Account{Login: "system", PasswordHash: "!"})
	require.NoError(t, err)
	operator, err := store.CreateAccount(ctx, database, model.Account{Login: "jana", PasswordHash: "x"})
	require.NoError(t, err)

	return &ledger{t: t, db: database, system: systemID, operator: operator}
}

func (l *ledger) engine() *Engine {
	days := 10
	return NewEngine(l.db, Options{
		SystemAccountID:   l.system,
		ExpiryWarningDays: &days,
		Now:               func() time.Time { return now },
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (l *ledger) item(name string, curMin int) int64 {
	l.t.Helper()
	id, err := store.CreateItem(context.Background(), l.db, model.Item{Name: name, MinAmount: curMin, Unit: "kos"})
	require.NoError(l.t, err)
	return id
}

func (l *ledger) move(mover, itemID int64, amount int, exp model.Date, at time.Time) {
	l.t.Helper()
	ctx := context.Background()
	moveID, err := store.InsertMove(ctx, l.db, mover, at, "")
	require.NoError(l.t, err)
	require.NoError(l.t, store.InsertMoveItem(ctx, l.db, model.MoveItem{
		MoveID: moveID, ItemID: itemID, Amount: amount, Expiration: exp,
	}))
	require.NoError(l.t, store.AdjustProjection(ctx, l.db, itemID, amount))
}

func TestLowStockBoundaryIsInclusive(t *testing.T) {
	l := newLedger(t)
	exp := model.NewDate(2026, 1, 1)

	below := l.item("Below", 10)
	l.move(l.operator, below, 5, exp, now)
	equal := l.item("Equal", 10)
	l.move(l.operator, equal, 10, exp, now)
	above := l.item("Above", 10)
	l.move(l.operator, above, 11, exp, now)

	low, err := l.engine().LowStock(context.Background())
	require.NoError(t, err)

	var ids []int64
	for _, item := range low {
		ids = append(ids, item.ID)
	}
	require.ElementsMatch(t, []int64{below, equal}, ids)
}

func TestExpiryWarningsOrderAndCutoff(t *testing.T) {
	l := newLedger(t)
	today := model.DateOf(now)

	chlieb := l.item("Chlieb", 0)
	cukor := l.item("Cukor", 0)
	caj := l.item("Čaj", 0)
	hrach := l.item("Hrach", 0)

	l.move(l.operator, chlieb, 2, today.AddDays(3), now)
	l.move(l.operator, hrach, 1, today.AddDays(1), now)
	l.move(l.operator, caj, 4, today.AddDays(9), now)
	l.move(l.operator, cukor, 3, today.AddDays(5), now)
	l.move(l.operator, cukor, 1, today.AddDays(-2), now)
	// Exactly at the cutoff: excluded.
	l.move(l.operator, cukor, 8, today.AddDays(10), now)
	// Emptied lot: excluded.
	l.move(l.operator, hrach, 2, today.AddDays(2), now)
	l.move(l.operator, hrach, -2, today.AddDays(2), now)

	warnings, err := l.engine().ExpiryWarnings(context.Background(), model.Date{})
	require.NoError(t, err)

	type row struct {
		name string
		exp  model.Date
	}
	var got []row
	for _, w := range warnings {
		got = append(got, row{w.ItemName, w.Expiration})
	}
	// Slovak collation: c < č < d ... h < ch.
	require.Equal(t, []row{
		{"Cukor", today.AddDays(-2)},
		{"Cukor", today.AddDays(5)},
		{"Čaj", today.AddDays(9)},
		{"Hrach", today.AddDays(1)},
		{"Chlieb", today.AddDays(3)},
	}, got)

	narrow, err := l.engine().ExpiryWarnings(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, narrow, 1)
	require.Equal(t, 1, narrow[0].Remaining)
}

func TestExpiryWindowDefaults(t *testing.T) {
	l := newLedger(t)
	today := model.DateOf(now)
	clock := func() time.Time { return now }

	zero := 0
	e := NewEngine(l.db, Options{ExpiryWarningDays: &zero, Now: clock})
	require.Equal(t, today, e.DefaultCutoff())

	e = NewEngine(l.db, Options{Now: clock})
	require.Equal(t, today.AddDays(DefaultExpiryWarningDays), e.DefaultCutoff())

	negative := -3
	e = NewEngine(l.db, Options{ExpiryWarningDays: &negative, Now: clock})
	require.Equal(t, today.AddDays(DefaultExpiryWarningDays), e.DefaultCutoff())

	// A zero window reports only lots that are already expired.
	soup := l.item("Polievka", 0)
	l.move(l.operator, soup, 2, today.AddDays(-1), now)
	l.move(l.operator, soup, 5, today, now)

	warnings, err := NewEngine(l.db, Options{ExpiryWarningDays: &zero, Now: clock}).ExpiryWarnings(context.Background(), model.Date{})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, today.AddDays(-1), warnings[0].Expiration)
}

func TestConsumptionOverview(t *testing.T) {
	l := newLedger(t)
	exp := model.NewDate(2026, 1, 1)

	gaza := l.item("Gaza", 0)
	l.move(l.operator, gaza, 40, exp, daysAgo(70))
	l.move(l.operator, gaza, -12, exp, daysAgo(40))
	l.move(l.operator, gaza, -6, exp, daysAgo(3))
	l.move(l.system, gaza, -3, exp, daysAgo(1))

	idle := l.item("Idle", 0)
	l.move(l.operator, idle, 5, exp, daysAgo(1))

	records, err := l.engine().ConsumptionOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	g := records[0]
	require.Equal(t, "Gaza", g.ItemName)
	require.Equal(t, 6, *g.LastMonth)
	require.InDelta(t, 6.0, *g.AvgMonth, 1e-9)      // 18 over 3 months
	require.InDelta(t, 1.0, *g.AvgMonthTrash, 1e-9) // 3 over 3 months

	i := records[1]
	require.Equal(t, idle, i.ItemID)
	require.Nil(t, i.LastMonth)
	require.Nil(t, i.AvgMonth)
	require.Nil(t, i.AvgMonthTrash)
}

func TestConsistencyAndSummary(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	itemID := l.item("Sol", 5)
	l.move(l.operator, itemID, 3, model.DateOf(now).AddDays(2), now)

	drift, err := l.engine().Consistency(ctx)
	require.NoError(t, err)
	require.Empty(t, drift)

	sum, err := l.engine().Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, model.DateOf(now).AddDays(10), sum.Cutoff)
	require.Len(t, sum.LowStock, 1)
	require.Len(t, sum.Expiring, 1)
	require.Len(t, sum.Consumption, 1)

	require.NoError(t, store.AdjustProjection(ctx, l.db, itemID, 1))
	drift, err = l.engine().Consistency(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
}

func TestReportFailureIsNotAnEmptyList(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	engine := l.engine()
	require.NoError(t, l.db.Close())

	low, err := engine.LowStock(ctx)
	require.Nil(t, low)
	require.True(t, errors.Is(err, ErrUnavailable))

	_, err = engine.Summary(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
}
