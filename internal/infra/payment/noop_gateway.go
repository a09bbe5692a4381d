package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is a simple in-memory gateway to use in tests and dev mode.
// MarkPaid flips a stored checkout so the verify flow can be exercised
// without the real provider.
type NoopGateway struct {
	mu        sync.Mutex
	seq       int64
	checkouts map[string]*model.Checkout
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{checkouts: make(map[string]*model.Checkout)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopGateway) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next()
	c := &model.Checkout{
		ID:          id,
		Status:      model.CheckoutStatusPending,
		Amount:      req.Amount,
		Currency:    req.Currency,
		CheckoutURL: "https://example.test/pay/" + id,
		SuccessURL:  req.SuccessURL,
		FailureURL:  req.FailureURL,
		Metadata:    req.Metadata,
		CreatedAt:   time.Now(),
	}
	g.checkouts[id] = c
	cp := *c
	return &cp, nil
}

func (g *NoopGateway) GetCheckout(ctx context.Context, checkoutID string) (*model.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.checkouts[checkoutID]
	if !ok {
		return nil, domain.ErrCheckoutNotFound
	}
	cp := *c
	return &cp, nil
}

// MarkPaid transitions a stored checkout to paid. Status is monotonic: a paid
// checkout stays paid.
func (g *NoopGateway) MarkPaid(checkoutID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.checkouts[checkoutID]; ok {
		c.Status = model.CheckoutStatusPaid
	}
}

var _ adapter.PaymentGateway = (*DisabledGateway)(nil)

// DisabledGateway stands in when provider credentials are missing in
// production. Every call fails with ErrGatewayNotConfigured so the server can
// keep serving the non-payment routes.
type DisabledGateway struct{}

func NewDisabledGateway() *DisabledGateway { return &DisabledGateway{} }

func (*DisabledGateway) Name() string { return "disabled" }

func (*DisabledGateway) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.Checkout, error) {
	return nil, domain.ErrGatewayNotConfigured
}

func (*DisabledGateway) GetCheckout(ctx context.Context, checkoutID string) (*model.Checkout, error) {
	return nil, domain.ErrGatewayNotConfigured
}
