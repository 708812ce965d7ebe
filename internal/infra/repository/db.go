package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS medications (
	id                      TEXT PRIMARY KEY,
	user_id                 TEXT NOT NULL,
	name                    TEXT NOT NULL,
	dosage                  TEXT NOT NULL DEFAULT '',
	quantity                INTEGER NOT NULL DEFAULT 0,
	continuous              BOOLEAN NOT NULL DEFAULT FALSE,
	treatment_duration_days INTEGER NOT NULL DEFAULT 0,
	clock_times             TEXT[] NOT NULL DEFAULT '{}',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS medications_user_clock_times_idx
	ON medications USING GIN (clock_times);

CREATE TABLE IF NOT EXISTS medication_intakes (
	id            TEXT PRIMARY KEY,
	medication_id TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	taken_at      TIMESTAMPTZ NOT NULL,
	quantity      INTEGER,
	note          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS medication_intakes_user_taken_at_idx
	ON medication_intakes (user_id, taken_at DESC);
`

// EnsureSchema creates the tables used by this package when they are missing.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
