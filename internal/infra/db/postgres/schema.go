package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// EnsureSchema creates the tables this service needs if they do not exist.
// The UNIQUE constraint on payment_notifications.dedupe_key is load-bearing:
// it is what makes the notification exactly-once across processes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS submissions (
    id           UUID PRIMARY KEY,
    type         TEXT NOT NULL DEFAULT 'intake',
    name         TEXT NOT NULL,
    email        TEXT NOT NULL DEFAULT '',
    whatsapp     TEXT NOT NULL DEFAULT '',
    age          TEXT NOT NULL DEFAULT '',
    gender       TEXT NOT NULL DEFAULT '',
    country      TEXT NOT NULL DEFAULT '',
    weight       TEXT NOT NULL DEFAULT '',
    height       TEXT NOT NULL DEFAULT '',
    goal         TEXT NOT NULL DEFAULT '',
    injuries     TEXT NOT NULL DEFAULT '',
    plan         TEXT NOT NULL DEFAULT '',
    message      TEXT NOT NULL DEFAULT '',
    slot_date    TEXT NOT NULL DEFAULT '',
    slot_time    TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'pending',
    pay_status   TEXT NOT NULL DEFAULT '',
    amount_paid  BIGINT NOT NULL DEFAULT 0,
    submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS submissions_status_idx ON submissions (status, submitted_at DESC);
CREATE INDEX IF NOT EXISTS submissions_email_idx ON submissions (email);

CREATE TABLE IF NOT EXISTS payment_notifications (
    id         TEXT PRIMARY KEY,
    dedupe_key TEXT NOT NULL UNIQUE,
    method     TEXT NOT NULL,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL DEFAULT '',
    plan       TEXT NOT NULL DEFAULT '',
    amount     BIGINT NOT NULL,
    currency   TEXT NOT NULL,
    delivered  BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	_, err := pool.Exec(ctx, ddl)
	return err
}
