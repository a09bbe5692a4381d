package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/adapter"
	"akram-coaching-backend/internal/infra/logging"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// CreateCheckout opens a hosted checkout session at the provider and
	// returns it. Redirect URLs must land on an allow-listed origin.
	CreateCheckout(ctx context.Context, in CreateCheckoutInput) (*model.Checkout, error)
	// VerifyCheckout asks the provider for the checkout record and accepts it
	// only when the provider says paid. Everything in the returned payment
	// comes from the provider record, never from the caller.
	VerifyCheckout(ctx context.Context, checkoutID string) (*model.VerifiedPayment, error)
}

type CreateCheckoutInput struct {
	Amount      int64
	Currency    string
	SuccessURL  string
	FailureURL  string
	ClientName  string
	ClientEmail string
	PlanName    string
}

// NotPaidError reports a verification that reached the provider but found the
// checkout in a non-paid state. Terminal: retrying will not help the caller.
type NotPaidError struct {
	Status model.CheckoutStatus
}

func (e *NotPaidError) Error() string {
	return fmt.Sprintf("payment not completed: status %s", e.Status)
}

func (e *NotPaidError) Unwrap() error { return domain.ErrPaymentNotCompleted }

type paymentUC struct {
	gateway        adapter.PaymentGateway
	allowedOrigins []string
	log            *zerolog.Logger
}

func NewPaymentUseCase(gateway adapter.PaymentGateway, allowedOrigins []string, log *zerolog.Logger) *paymentUC {
	return &paymentUC{gateway: gateway, allowedOrigins: allowedOrigins, log: log}
}

func (u *paymentUC) CreateCheckout(ctx context.Context, in CreateCheckoutInput) (*model.Checkout, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "dzd"
	}
	if err := u.checkRedirect(in.SuccessURL); err != nil {
		return nil, err
	}
	if err := u.checkRedirect(in.FailureURL); err != nil {
		return nil, err
	}

	req := model.CheckoutRequest{
		Amount:     in.Amount,
		Currency:   currency,
		SuccessURL: in.SuccessURL,
		FailureURL: in.FailureURL,
		Metadata: model.CheckoutMetadata{
			ClientName:  strings.TrimSpace(in.ClientName),
			ClientEmail: strings.TrimSpace(in.ClientEmail),
			PlanName:    strings.TrimSpace(in.PlanName),
		},
	}
	co, err := u.gateway.CreateCheckout(ctx, req)
	if err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().
		Str("checkout_id", co.ID).
		Int64("amount", co.Amount).
		Str("currency", co.Currency).
		Msg("checkout created")
	return co, nil
}

func (u *paymentUC) VerifyCheckout(ctx context.Context, checkoutID string) (*model.VerifiedPayment, error) {
	checkoutID = strings.TrimSpace(checkoutID)
	if checkoutID == "" {
		return nil, fmt.Errorf("%w: checkout id is required", domain.ErrInvalidArgument)
	}

	co, err := u.gateway.GetCheckout(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if co.Status != model.CheckoutStatusPaid {
		logging.With(ctx, u.log).Info().
			Str("checkout_id", checkoutID).
			Str("status", string(co.Status)).
			Msg("verification rejected: checkout not paid")
		return nil, &NotPaidError{Status: co.Status}
	}

	return &model.VerifiedPayment{
		CheckoutID: co.ID,
		Method:     u.gateway.Name(),
		Name:       co.Metadata.ClientName,
		Email:      co.Metadata.ClientEmail,
		Plan:       co.Metadata.PlanName,
		Amount:     co.Amount,
		Currency:   co.Currency,
		PaidAt:     co.CreatedAt,
	}, nil
}

// checkRedirect accepts only absolute http(s) URLs whose origin is on the
// allow-list. Scheme and host compare case-insensitively.
func (u *paymentUC) checkRedirect(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: redirect url is required", domain.ErrInvalidArgument)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute url", domain.ErrInvalidArgument, raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: %q", domain.ErrOriginNotAllowed, raw)
	}
	got := strings.ToLower(parsed.Scheme + "://" + parsed.Host)
	for _, allowed := range u.allowedOrigins {
		if got == strings.ToLower(strings.TrimRight(allowed, "/")) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", domain.ErrOriginNotAllowed, raw)
}
