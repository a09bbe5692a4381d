package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/repository"
)

var _ repository.NotificationLogRepository = (*notificationLogRepo)(nil)

type notificationLogRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationLogRepo(pool *pgxpool.Pool) repository.NotificationLogRepository {
	return &notificationLogRepo{pool: pool}
}

func (r *notificationLogRepo) Save(ctx context.Context, n *model.PaymentNotification) error {
	const q = `
INSERT INTO payment_notifications (id, dedupe_key, method, name, email, plan, amount, currency, delivered, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	// No existence pre-check. The UNIQUE constraint on dedupe_key is the
	// duplicate prevention; a 23505 here means someone else already notified.
	_, err := r.pool.Exec(ctx, q,
		n.ID, n.DedupeKey, n.Method, n.Name, n.Email, n.Plan, n.Amount, n.Currency, n.Delivered, n.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyNotified
		}
		return err
	}
	return nil
}

func (r *notificationLogRepo) MarkDelivered(ctx context.Context, id string) error {
	const q = `UPDATE payment_notifications SET delivered = TRUE WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *notificationLogRepo) Exists(ctx context.Context, dedupeKey string) (bool, error) {
	// SELECT EXISTS(...) stops on the first match.
	const q = `SELECT EXISTS(SELECT 1 FROM payment_notifications WHERE dedupe_key = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, dedupeKey).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *notificationLogRepo) SumDeliveredSince(ctx context.Context, currency string, since time.Time) (int64, error) {
	const q = `
SELECT COALESCE(SUM(amount), 0) FROM payment_notifications
WHERE delivered AND currency = $1 AND created_at >= $2`
	var total int64
	if err := r.pool.QueryRow(ctx, q, currency, since).Scan(&total); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return total, nil
}
