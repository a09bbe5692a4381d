package email

import (
	"context"
	"sync"

	"akram-coaching-backend/internal/domain/ports/adapter"
)

var _ adapter.Mailer = (*NoopMailer)(nil)

// NoopMailer records sent emails in memory. Used in tests and dev mode.
type NoopMailer struct {
	mu   sync.Mutex
	sent []adapter.Email
}

func NewNoopMailer() *NoopMailer { return &NoopMailer{} }

func (m *NoopMailer) Send(ctx context.Context, msg adapter.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of everything sent so far.
func (m *NoopMailer) Sent() []adapter.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.Email, len(m.sent))
	copy(out, m.sent)
	return out
}
