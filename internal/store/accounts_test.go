package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func TestCreateAndGetAccount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, err := CreateAccount(ctx, database, model.Account{
		Name: "Jana", Surname: "Novak", Login: "jana", PasswordHash: "hash123", Admin: true,
	})
	require.NoError(t, err)

	got, err := GetAccount(ctx, database, id)
	require.NoError(t, err)
	require.Equal(t, "jana", got.Login)
	require.Equal(t, "hash123", got.PasswordHash)
	require.True(t, got.Admin)
	require.False(t, got.CreatedAt.IsZero())

	byLogin, err := GetAccountByLogin(ctx, database, "jana")
	require.NoError(t, err)
	require.Equal(t, id, byLogin.ID)

	missing, err := GetAccountByLogin(ctx, database, "bob")
	require.NoError(t, err)
	require.Nil(t, missing)

	_, err = CreateAccount(ctx, database, model.Account{Login: "jana", PasswordHash: "x"})
	require.True(t, db.IsUniqueViolation(err))
}

func TestUpdateAccountAndPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	id := newAccount(t, database, "miha")

	require.NoError(t, UpdateAccount(ctx, database, model.Account{ID: id, Name: "Miha", Surname: "Kranjc", Admin: true}))
	require.NoError(t, UpdateAccountPassword(ctx, database, id, "newhash"))

	got, err := GetAccount(ctx, database, id)
	require.NoError(t, err)
	require.Equal(t, "Miha Kranjc", got.FullName())
	require.True(t, got.Admin)
	require.Equal(t, "newhash", got.PasswordHash)

	err = UpdateAccountPassword(ctx, database, id+50, "x")
	require.True(t, errors.Is(err, ErrNoRows))
}

func TestReassignMovesAndDeleteAccount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	leaving := newAccount(t, database, "leaving")
	heir := newAccount(t, database, "heir")
	itemID := newItem(t, database, "Gaza")
	recordLine(t, database, leaving, itemID, 5, model.NewDate(2030, 1, 1), now())

	// Moves reference the account, so it cannot go first.
	require.Error(t, DeleteAccount(ctx, database, leaving))

	n, err := CountMovesByAccount(ctx, database, leaving)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	moved, err := ReassignMoves(ctx, database, leaving, heir)
	require.NoError(t, err)
	require.EqualValues(t, 1, moved)
	require.NoError(t, DeleteAccount(ctx, database, leaving))

	accounts, err := ListAccounts(ctx, database)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, heir, accounts[0].ID)
}
