package adapter

import (
	"context"

	"akram-coaching-backend/internal/domain/model"
)

// PaymentGateway is the hex port for the hosted-checkout payment provider.
//
// CreateCheckout opens a provider-owned checkout session and returns it with
// the hosted payment page URL filled in. GetCheckout re-fetches the session by
// id; it is side-effect-free on the provider, so callers may repeat it freely.
type PaymentGateway interface {
	Name() string

	CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.Checkout, error)
	GetCheckout(ctx context.Context, checkoutID string) (*model.Checkout, error)
}
