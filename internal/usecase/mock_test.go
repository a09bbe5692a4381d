//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/adapter"
	"akram-coaching-backend/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func intakeSubmission(id, email string) *model.Submission {
	return &model.Submission{
		ID:          id,
		Type:        model.SubmissionTypeIntake,
		Name:        "Client",
		Email:       email,
		Status:      model.SubmissionStatusPending,
		SubmittedAt: time.Now(),
	}
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu sync.Mutex

	CreateCheckoutFunc func(ctx context.Context, req model.CheckoutRequest) (*model.Checkout, error)
	GetCheckoutFunc    func(ctx context.Context, checkoutID string) (*model.Checkout, error)

	Created []model.CheckoutRequest
	Gets    []string
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "chargily" }

func (m *MockGateway) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.Checkout, error) {
	m.mu.Lock()
	m.Created = append(m.Created, req)
	m.mu.Unlock()
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, req)
	}
	return &model.Checkout{
		ID:          "checkout_01",
		Status:      model.CheckoutStatusPending,
		Amount:      req.Amount,
		Currency:    req.Currency,
		CheckoutURL: "https://pay.example.test/checkout_01",
		Metadata:    req.Metadata,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *MockGateway) GetCheckout(ctx context.Context, checkoutID string) (*model.Checkout, error) {
	m.mu.Lock()
	m.Gets = append(m.Gets, checkoutID)
	m.mu.Unlock()
	if m.GetCheckoutFunc != nil {
		return m.GetCheckoutFunc(ctx, checkoutID)
	}
	return nil, domain.ErrCheckoutNotFound
}

// ---- Mock Mailer ----

type MockMailer struct {
	mu       sync.Mutex
	SendFunc func(ctx context.Context, msg adapter.Email) error
	Sent     []adapter.Email
}

var _ adapter.Mailer = (*MockMailer)(nil)

func (m *MockMailer) Send(ctx context.Context, msg adapter.Email) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MockMailer) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// ---- Mock Assistant ----

type MockAssistant struct {
	ReplyFunc func(ctx context.Context, message string, floating bool) (string, error)
}

var _ adapter.Assistant = (*MockAssistant)(nil)

func (m *MockAssistant) Reply(ctx context.Context, message string, floating bool) (string, error) {
	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, message, floating)
	}
	return "Let's get you started with the 90-Day Challenge!", nil
}

// ---- Mock RateLimiter ----

type MockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	return true, nil
}

// =============================
// Repositories
// =============================

// ---- In-memory notification log ----

type MemNotificationLog struct {
	mu      sync.Mutex
	byKey   map[string]*model.PaymentNotification
	SaveErr error // simulate storage failures
}

var _ repository.NotificationLogRepository = (*MemNotificationLog)(nil)

func NewMemNotificationLog() *MemNotificationLog {
	return &MemNotificationLog{byKey: make(map[string]*model.PaymentNotification)}
}

func (m *MemNotificationLog) Save(ctx context.Context, n *model.PaymentNotification) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[n.DedupeKey]; ok {
		return domain.ErrAlreadyNotified
	}
	cp := *n
	m.byKey[n.DedupeKey] = &cp
	return nil
}

func (m *MemNotificationLog) MarkDelivered(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.byKey {
		if n.ID == id {
			n.Delivered = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MemNotificationLog) Exists(ctx context.Context, dedupeKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byKey[dedupeKey]
	return ok, nil
}

func (m *MemNotificationLog) SumDeliveredSince(ctx context.Context, currency string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, n := range m.byKey {
		if n.Delivered && n.Currency == currency && !n.CreatedAt.Before(since) {
			total += n.Amount
		}
	}
	return total, nil
}

func (m *MemNotificationLog) Get(dedupeKey string) *model.PaymentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.byKey[dedupeKey]; ok {
		cp := *n
		return &cp
	}
	return nil
}

// ---- In-memory notification marker ----

type MemMarker struct {
	mu         sync.Mutex
	keys       map[string]bool
	AcquireErr error // simulate marker outage
}

var _ repository.NotificationMarker = (*MemMarker)(nil)

func NewMemMarker() *MemMarker { return &MemMarker{keys: make(map[string]bool)} }

func (m *MemMarker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.AcquireErr != nil {
		return false, m.AcquireErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *MemMarker) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *MemMarker) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key]
}

// ---- In-memory submission repo ----

type MemSubmissionRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Submission
	order   []string // insertion order, newest last
	SaveErr error
}

var _ repository.SubmissionRepository = (*MemSubmissionRepo)(nil)

func NewMemSubmissionRepo() *MemSubmissionRepo {
	return &MemSubmissionRepo{store: make(map[string]*model.Submission)}
}

func (m *MemSubmissionRepo) Save(ctx context.Context, s *model.Submission) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	m.order = append(m.order, s.ID)
	return nil
}

func (m *MemSubmissionRepo) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemSubmissionRepo) List(ctx context.Context, status model.SubmissionStatus, offset, limit int) ([]*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Submission
	for i := len(m.order) - 1; i >= 0; i-- {
		s := m.store[m.order[i]]
		if status != "" && s.Status != status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemSubmissionRepo) Count(ctx context.Context, status model.SubmissionStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == "" {
		return len(m.store), nil
	}
	n := 0
	for _, s := range m.store {
		if s.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *MemSubmissionRepo) CountByType(ctx context.Context) (map[model.SubmissionType]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.SubmissionType]int)
	for _, s := range m.store {
		out[s.Type]++
	}
	return out, nil
}

func (m *MemSubmissionRepo) UpdateStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	return nil
}

func (m *MemSubmissionRepo) MarkPaid(ctx context.Context, email string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		s := m.store[m.order[i]]
		if s.Email == email {
			s.PayStatus = "paid"
			s.AmountPaid = amount
			return nil
		}
	}
	return domain.ErrNotFound
}
