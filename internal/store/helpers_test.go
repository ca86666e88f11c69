package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func newAccount(t *testing.T, q db.Querier, login string) int64 {
	t.Helper()
	id, err := CreateAccount(context.Background(), q, model.Account{
		Name: "Test", Surname: login, Login: login, PasswordHash: "hash",
	})
	require.NoError(t, err)
	return id
}

func newItem(t *testing.T, q db.Querier, name string) int64 {
	t.Helper()
	id, err := CreateItem(context.Background(), q, model.Item{Name: name, Unit: "kos"})
	require.NoError(t, err)
	return id
}

// recordLine appends a single-line move and keeps the projection in step.
func recordLine(t *testing.T, q db.Querier, accountID, itemID int64, amount int, exp model.Date, at time.Time) int64 {
	t.Helper()
	ctx := context.Background()
	moveID, err := InsertMove(ctx, q, accountID, at, "")
	require.NoError(t, err)
	require.NoError(t, InsertMoveItem(ctx, q, model.MoveItem{
		MoveID: moveID, ItemID: itemID, Amount: amount, Expiration: exp,
	}))
	require.NoError(t, AdjustProjection(ctx, q, itemID, amount))
	return moveID
}
