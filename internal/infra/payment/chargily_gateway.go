package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*ChargilyGateway)(nil)

// ChargilyGateway implements PaymentGateway against the Chargily Pay v2 API.
type ChargilyGateway struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewChargilyGateway creates a gateway for the given mode ("test" | "live").
// baseURL overrides the derived endpoint when non-empty (used in tests).
func NewChargilyGateway(apiKey, mode, baseURL string) (*ChargilyGateway, error) {
	if apiKey == "" {
		return nil, domain.ErrGatewayNotConfigured
	}
	if baseURL == "" {
		switch mode {
		case "live":
			baseURL = "https://pay.chargily.net/api/v2"
		default:
			baseURL = "https://pay.chargily.net/test/api/v2"
		}
	}
	return &ChargilyGateway{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *ChargilyGateway) Name() string { return "chargily" }

// chargilyCheckout is the wire shape of a checkout object in the v2 API.
type chargilyCheckout struct {
	ID          string            `json:"id"`
	Entity      string            `json:"entity"`
	Status      string            `json:"status"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	CheckoutURL string            `json:"checkout_url"`
	SuccessURL  string            `json:"success_url"`
	FailureURL  string            `json:"failure_url"`
	Metadata    map[string]string `json:"metadata"`
	CreatedAt   int64             `json:"created_at"`
}

func (c *chargilyCheckout) toModel() *model.Checkout {
	return &model.Checkout{
		ID:          c.ID,
		Status:      model.CheckoutStatus(c.Status),
		Amount:      c.Amount,
		Currency:    c.Currency,
		CheckoutURL: c.CheckoutURL,
		SuccessURL:  c.SuccessURL,
		FailureURL:  c.FailureURL,
		Metadata: model.CheckoutMetadata{
			ClientName:  c.Metadata["client_name"],
			ClientEmail: c.Metadata["client_email"],
			PlanName:    c.Metadata["plan_name"],
		},
		CreatedAt: time.Unix(c.CreatedAt, 0),
	}
}

// CreateCheckout implements PaymentGateway.CreateCheckout.
func (g *ChargilyGateway) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.Checkout, error) {
	requestData := map[string]interface{}{
		"amount":      req.Amount,
		"currency":    strings.ToLower(req.Currency),
		"success_url": req.SuccessURL,
		"failure_url": req.FailureURL,
		"metadata": map[string]string{
			"client_name":  req.Metadata.ClientName,
			"client_email": req.Metadata.ClientEmail,
			"plan_name":    req.Metadata.PlanName,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/checkouts", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chargily create checkout: http %d: %s", resp.StatusCode, string(body))
	}

	var out chargilyCheckout
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}
	if out.CheckoutURL == "" {
		return nil, fmt.Errorf("chargily create checkout: no checkout_url in response")
	}
	return out.toModel(), nil
}

// GetCheckout implements PaymentGateway.GetCheckout. Transient transport
// failures are retried a few times with backoff before giving up with
// ErrProviderUnavailable; a clean 404 maps to ErrCheckoutNotFound.
func (g *ChargilyGateway) GetCheckout(ctx context.Context, checkoutID string) (*model.Checkout, error) {
	if checkoutID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
		}

		c, retryable, err := g.getCheckoutOnce(ctx, checkoutID)
		if err == nil {
			return c, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, lastErr)
}

func (g *ChargilyGateway) getCheckoutOnce(ctx context.Context, checkoutID string) (*model.Checkout, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/checkouts/"+checkoutID, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, domain.ErrCheckoutNotFound
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("chargily get checkout: http %d", resp.StatusCode)
	case resp.StatusCode >= 300:
		return nil, false, fmt.Errorf("chargily get checkout: http %d: %s", resp.StatusCode, string(body))
	}

	var out chargilyCheckout
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}
	if out.ID == "" {
		return nil, false, errors.New("chargily get checkout: empty checkout id in response")
	}
	return out.toModel(), false, nil
}
