package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

const accountColumns = `id, name, surname, login, password, admin, created_at`

// CreateAccount inserts an account and returns its ID. The account's
// PasswordHash must already be hashed.
func CreateAccount(ctx context.Context, q db.Querier, a model.Account) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO account (name, surname, login, password, admin) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		a.Name, a.Surname, a.Login, a.PasswordHash, a.Admin,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating account: %w", err)
	}
	return id, nil
}

// GetAccount returns an account by ID.
func GetAccount(ctx context.Context, q db.Querier, id int64) (*model.Account, error) {
	a := &model.Account{}
	err := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Surname, &a.Login, &a.PasswordHash, &a.Admin, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return a, nil
}

// GetAccountByLogin returns an account by its login name.
func GetAccountByLogin(ctx context.Context, q db.Querier, login string) (*model.Account, error) {
	a := &model.Account{}
	err := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE login = ?`, login,
	).Scan(&a.ID, &a.Name, &a.Surname, &a.Login, &a.PasswordHash, &a.Admin, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by login: %w", err)
	}
	return a, nil
}

// ListAccounts returns all accounts ordered by ID.
func ListAccounts(ctx context.Context, q db.Querier) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM account ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Surname, &a.Login, &a.PasswordHash, &a.Admin, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount updates an account's names and admin flag.
func UpdateAccount(ctx context.Context, q db.Querier, a model.Account) error {
	result, err := q.ExecContext(ctx,
		`UPDATE account SET name = ?, surname = ?, admin = ? WHERE id = ?`,
		a.Name, a.Surname, a.Admin, a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return expectOneRow(result, "updating account")
}

// UpdateAccountPassword updates an account's password hash.
func UpdateAccountPassword(ctx context.Context, q db.Querier, id int64, passwordHash string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE account SET password = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating account password: %w", err)
	}
	return expectOneRow(result, "updating account password")
}

// CountMovesByAccount counts the moves an account performed.
func CountMovesByAccount(ctx context.Context, q db.Querier, accountID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM move WHERE account_id = ?`, accountID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting account moves: %w", err)
	}
	return count, nil
}

// ReassignMoves attributes every move of one account to another and returns
// how many moves changed hands.
func ReassignMoves(ctx context.Context, q db.Querier, from, to int64) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE move SET account_id = ? WHERE account_id = ?`, to, from,
	)
	if err != nil {
		return 0, fmt.Errorf("reassigning moves: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassigning moves: %w", err)
	}
	return n, nil
}

// DeleteAccount removes an account row. Callers must reassign its moves
// first.
func DeleteAccount(ctx context.Context, q db.Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM account WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return expectOneRow(result, "deleting account")
}
