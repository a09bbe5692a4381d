package redis

import (
	"context"
	"time"

	"akram-coaching-backend/internal/domain/ports/repository"
)

var _ repository.NotificationMarker = (*NotificationMarker)(nil)

// NotificationMarker is the SETNX fast path in front of the notification log.
// It closes the window where two concurrent verifies race the log insert; the
// log's UNIQUE constraint remains the durable guarantee if Redis is flushed.
type NotificationMarker struct {
	cli RedisClient
	ttl time.Duration
}

func NewNotificationMarker(cli RedisClient, ttl time.Duration) *NotificationMarker {
	return &NotificationMarker{cli: cli, ttl: ttl}
}

func (m *NotificationMarker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	return m.cli.SetNX(ctx, "notify:"+key, "1", ttl)
}

func (m *NotificationMarker) Release(ctx context.Context, key string) error {
	return m.cli.Del(ctx, "notify:"+key)
}
