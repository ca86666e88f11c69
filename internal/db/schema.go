package db

import (
	"context"
	"fmt"
)

// sqliteSchema is the full SQLite database schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS account (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    surname    TEXT NOT NULL DEFAULT '',
    login      TEXT NOT NULL UNIQUE,
    password   TEXT NOT NULL,
    admin      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS category (
    id        INTEGER PRIMARY KEY,
    name      TEXT NOT NULL UNIQUE,
    subcat_of INTEGER REFERENCES category(id),
    color     TEXT NOT NULL DEFAULT '',
    note      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS item (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    barcode    TEXT NOT NULL DEFAULT '',
    min_amount INTEGER NOT NULL DEFAULT 0 CHECK (min_amount >= 0),
    cur_amount INTEGER NOT NULL DEFAULT 0,
    unit       TEXT NOT NULL DEFAULT '',
    note       TEXT NOT NULL DEFAULT '',
    search_name TEXT NOT NULL DEFAULT '',
    category   INTEGER REFERENCES category(id),
    deleted_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_item_category ON item(category);

CREATE TABLE IF NOT EXISTS attribute (
    item_id INTEGER NOT NULL REFERENCES item(id),
    name    TEXT NOT NULL,
    content TEXT NOT NULL,
    PRIMARY KEY (item_id, name, content)
);

CREATE TABLE IF NOT EXISTS move (
    id         INTEGER PRIMARY KEY,
    account_id INTEGER NOT NULL REFERENCES account(id),
    time       DATETIME NOT NULL,
    note       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_move_account ON move(account_id);

CREATE TABLE IF NOT EXISTS move_item (
    move_id    INTEGER NOT NULL REFERENCES move(id),
    item_id    INTEGER NOT NULL REFERENCES item(id),
    amount     INTEGER NOT NULL CHECK (amount <> 0),
    expiration DATE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_move_item_lot ON move_item(item_id, expiration);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_token (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// postgresSchema is the same schema for PostgreSQL.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS account (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    surname    TEXT NOT NULL DEFAULT '',
    login      TEXT NOT NULL UNIQUE,
    password   TEXT NOT NULL,
    admin      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS category (
    id        BIGSERIAL PRIMARY KEY,
    name      TEXT NOT NULL UNIQUE,
    subcat_of BIGINT REFERENCES category(id),
    color     TEXT NOT NULL DEFAULT '',
    note      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS item (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    barcode    TEXT NOT NULL DEFAULT '',
    min_amount INTEGER NOT NULL DEFAULT 0 CHECK (min_amount >= 0),
    cur_amount INTEGER NOT NULL DEFAULT 0,
    unit       TEXT NOT NULL DEFAULT '',
    note       TEXT NOT NULL DEFAULT '',
    search_name TEXT NOT NULL DEFAULT '',
    category   BIGINT REFERENCES category(id),
    deleted_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_item_category ON item(category);

CREATE TABLE IF NOT EXISTS attribute (
    item_id BIGINT NOT NULL REFERENCES item(id),
    name    TEXT NOT NULL,
    content TEXT NOT NULL,
    PRIMARY KEY (item_id, name, content)
);

CREATE TABLE IF NOT EXISTS move (
    id         BIGSERIAL PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES account(id),
    time       TIMESTAMPTZ NOT NULL,
    note       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_move_account ON move(account_id);

CREATE TABLE IF NOT EXISTS move_item (
    move_id    BIGINT NOT NULL REFERENCES move(id),
    item_id    BIGINT NOT NULL REFERENCES item(id),
    amount     INTEGER NOT NULL CHECK (amount <> 0),
    expiration DATE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_move_item_lot ON move_item(item_id, expiration);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_token (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(ctx context.Context, d *DB) error {
	schema := sqliteSchema
	if d.dialect == Postgres {
		schema = postgresSchema
	}
	if _, err := d.sql.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
