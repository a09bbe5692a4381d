package repository

import (
	"context"
	"time"

	"akram-coaching-backend/internal/domain/model"
)

// -----------------------------
// Payment notification log
// -----------------------------

// NotificationLogRepository is the durable idempotency record for payment
// notifications. Save must fail with domain.ErrAlreadyNotified when a record
// with the same dedupe key exists; the backing store enforces this with a
// UNIQUE constraint rather than a read-then-write.
type NotificationLogRepository interface {
	Save(ctx context.Context, n *model.PaymentNotification) error
	// MarkDelivered flips the delivered flag once the email actually went out.
	MarkDelivered(ctx context.Context, id string) error
	Exists(ctx context.Context, dedupeKey string) (bool, error)
	// SumDeliveredSince totals the amounts of delivered notifications in a
	// currency since the given time. Feeds the admin revenue stats.
	SumDeliveredSince(ctx context.Context, currency string, since time.Time) (int64, error)
}

// NotificationMarker is the fast-path guard in front of the log: an atomic
// check-and-set keyed by the same dedupe key. Best effort — when it is
// unavailable the UNIQUE constraint in the log still holds the invariant.
type NotificationMarker interface {
	// Acquire returns true if the caller is first for this key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
