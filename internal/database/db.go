package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// DB wraps the sql connection pool
type DB struct {
	*sql.DB
}

// New opens a connection pool to Postgres and verifies it
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate applies the schema. Statements are idempotent so this is safe to
// run on every startup.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                  BIGINT PRIMARY KEY,
	timezone            TEXT NOT NULL DEFAULT 'UTC',
	default_remind_min  INTEGER NOT NULL DEFAULT 15,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id                 BIGSERIAL PRIMARY KEY,
	user_id            BIGINT NOT NULL REFERENCES users(id),
	title              TEXT NOT NULL,
	start_utc          TIMESTAMPTZ NOT NULL,
	duration_min       INTEGER NOT NULL CHECK (duration_min > 0),
	remind_before_min  INTEGER NOT NULL DEFAULT 0 CHECK (remind_before_min >= 0),
	timezone           TEXT NOT NULL,
	calendar_href      TEXT,
	calendar_uid       TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_start ON tasks (user_id, start_utc);
`
