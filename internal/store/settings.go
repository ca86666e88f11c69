package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/erazemk/zaloga/internal/db"
)

// Setting keys.
const (
	settingJWTSecret       = "jwt_secret"
	settingSystemAccountID = "system_account_id"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses insert-if-absent + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, q db.Querier) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	if err := putSettingIfAbsent(ctx, q, settingJWTSecret, hex.EncodeToString(buf)); err != nil {
		return "", err
	}

	secret, _, err := getSetting(ctx, q, settingJWTSecret)
	return secret, err
}

// SetSystemAccountID records which account performs disposals.
func SetSystemAccountID(ctx context.Context, q db.Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		settingSystemAccountID, strconv.FormatInt(id, 10),
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", settingSystemAccountID, err)
	}
	return nil
}

// GetSystemAccountID returns the recorded system account ID, or 0 if the
// database was never initialized.
func GetSystemAccountID(ctx context.Context, q db.Querier) (int64, error) {
	value, ok, err := getSetting(ctx, q, settingSystemAccountID)
	if err != nil || !ok {
		return 0, err
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", settingSystemAccountID, err)
	}
	return id, nil
}

func putSettingIfAbsent(ctx context.Context, q db.Querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

func getSetting(ctx context.Context, q db.Querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying %s: %w", key, err)
	}
	return value, true, nil
}
