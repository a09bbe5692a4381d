//go:build !integration

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/infra/api"
	"akram-coaching-backend/internal/usecase"

	"github.com/rs/zerolog"
)

// -----------------------------
// Stub use cases
// -----------------------------

type stubPaymentUC struct {
	CreateCheckoutFunc func(ctx context.Context, in usecase.CreateCheckoutInput) (*model.Checkout, error)
	VerifyCheckoutFunc func(ctx context.Context, checkoutID string) (*model.VerifiedPayment, error)
}

func (s *stubPaymentUC) CreateCheckout(ctx context.Context, in usecase.CreateCheckoutInput) (*model.Checkout, error) {
	if s.CreateCheckoutFunc != nil {
		return s.CreateCheckoutFunc(ctx, in)
	}
	return &model.Checkout{ID: "checkout_01", CheckoutURL: "https://pay.example.test/checkout_01"}, nil
}

func (s *stubPaymentUC) VerifyCheckout(ctx context.Context, checkoutID string) (*model.VerifiedPayment, error) {
	if s.VerifyCheckoutFunc != nil {
		return s.VerifyCheckoutFunc(ctx, checkoutID)
	}
	return nil, domain.ErrCheckoutNotFound
}

type stubNotifyUC struct {
	mu       sync.Mutex
	Verified []model.VerifiedPayment
	Legacy   []usecase.LegacyNotification

	NotifyLegacyFunc func(ctx context.Context, in usecase.LegacyNotification) (usecase.NotifyOutcome, error)
}

func (s *stubNotifyUC) NotifyVerified(ctx context.Context, p model.VerifiedPayment) (usecase.NotifyOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Verified = append(s.Verified, p)
	if len(s.Verified) > 1 {
		return usecase.NotifyOutcomeDuplicate, nil
	}
	return usecase.NotifyOutcomeSent, nil
}

func (s *stubNotifyUC) NotifyLegacy(ctx context.Context, in usecase.LegacyNotification) (usecase.NotifyOutcome, error) {
	if s.NotifyLegacyFunc != nil {
		return s.NotifyLegacyFunc(ctx, in)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Legacy = append(s.Legacy, in)
	return usecase.NotifyOutcomeSent, nil
}

type stubIntakeUC struct {
	SubmitFunc func(ctx context.Context, in usecase.IntakeInput) (*model.Submission, error)
}

func (s *stubIntakeUC) Submit(ctx context.Context, in usecase.IntakeInput) (*model.Submission, error) {
	if s.SubmitFunc != nil {
		return s.SubmitFunc(ctx, in)
	}
	return &model.Submission{ID: "sub-1", Type: in.Type, Name: in.Name, Email: in.Email}, nil
}

type stubChatUC struct {
	ChatFunc func(ctx context.Context, clientIP, message string, floating bool) (string, error)
}

func (s *stubChatUC) Chat(ctx context.Context, clientIP, message string, floating bool) (string, error) {
	if s.ChatFunc != nil {
		return s.ChatFunc(ctx, clientIP, message, floating)
	}
	return "reply", nil
}

// -----------------------------
// Harness
// -----------------------------

type testServer struct {
	pay    *stubPaymentUC
	notify *stubNotifyUC
	intake *stubIntakeUC
	chat   *stubChatUC
	http   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerReady(t, true, true)
}

func newTestServerReady(t *testing.T, emailReady, gatewayReady bool) *testServer {
	t.Helper()
	ts := &testServer{
		pay:    &stubPaymentUC{},
		notify: &stubNotifyUC{},
		intake: &stubIntakeUC{},
		chat:   &stubChatUC{},
	}
	logger := zerolog.Nop()
	srv := api.NewServer(ts.pay, ts.notify, ts.intake, ts.chat,
		[]string{"https://akramcoach.com"}, emailReady, gatewayReady, &logger)
	ts.http = httptest.NewServer(srv.Router())
	t.Cleanup(ts.http.Close)
	return ts
}

func (ts *testServer) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(ts.http.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// -----------------------------
// Tests
// -----------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.http.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["ok"] != true {
		t.Errorf("expected ok:true, got %v", body["ok"])
	}
	if body["email_ready"] != true {
		t.Errorf("expected email_ready:true, got %v", body["email_ready"])
	}
}

func TestCreateCheckoutEndpoint(t *testing.T) {
	t.Run("forwards the payload and returns the checkout url", func(t *testing.T) {
		ts := newTestServer(t)
		var got usecase.CreateCheckoutInput
		ts.pay.CreateCheckoutFunc = func(ctx context.Context, in usecase.CreateCheckoutInput) (*model.Checkout, error) {
			got = in
			return &model.Checkout{ID: "checkout_01", CheckoutURL: "https://pay.example.test/checkout_01"}, nil
		}

		resp := ts.post(t, "/api/chargily/create-checkout", map[string]any{
			"amount":      5000,
			"currency":    "DZD",
			"successUrl":  "https://akramcoach.com/ok",
			"failureUrl":  "https://akramcoach.com/fail",
			"clientName":  "Sara",
			"clientEmail": "sara@x.com",
			"planName":    "Elite",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decode[map[string]any](t, resp)
		if body["checkoutUrl"] != "https://pay.example.test/checkout_01" {
			t.Errorf("unexpected checkoutUrl: %v", body["checkoutUrl"])
		}
		if got.Amount != 5000 || got.ClientName != "Sara" || got.PlanName != "Elite" {
			t.Errorf("input not forwarded: %+v", got)
		}
	})

	t.Run("accepts the amount as a numeric string", func(t *testing.T) {
		ts := newTestServer(t)
		var got int64
		ts.pay.CreateCheckoutFunc = func(ctx context.Context, in usecase.CreateCheckoutInput) (*model.Checkout, error) {
			got = in.Amount
			return &model.Checkout{ID: "checkout_01"}, nil
		}

		resp := ts.post(t, "/api/chargily/create-checkout", map[string]any{
			"amount":     "7500",
			"successUrl": "https://akramcoach.com/ok",
			"failureUrl": "https://akramcoach.com/fail",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if got != 7500 {
			t.Errorf("expected coerced amount 7500, got %d", got)
		}
	})

	t.Run("rejects a disallowed redirect origin with 400", func(t *testing.T) {
		ts := newTestServer(t)
		ts.pay.CreateCheckoutFunc = func(ctx context.Context, in usecase.CreateCheckoutInput) (*model.Checkout, error) {
			return nil, domain.ErrOriginNotAllowed
		}

		resp := ts.post(t, "/api/chargily/create-checkout", map[string]any{
			"amount":     5000,
			"successUrl": "https://evil.example/ok",
			"failureUrl": "https://akramcoach.com/fail",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("answers a generic 500 when the gateway is not configured", func(t *testing.T) {
		ts := newTestServerReady(t, true, false)
		ts.pay.CreateCheckoutFunc = func(ctx context.Context, in usecase.CreateCheckoutInput) (*model.Checkout, error) {
			return nil, domain.ErrGatewayNotConfigured
		}

		resp := ts.post(t, "/api/chargily/create-checkout", map[string]any{
			"amount":     5000,
			"successUrl": "https://akramcoach.com/ok",
			"failureUrl": "https://akramcoach.com/fail",
		})
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.StatusCode)
		}
		body := decode[map[string]string](t, resp)
		if body["error"] != "Failed to create checkout" {
			t.Errorf("expected a generic error, got %q", body["error"])
		}
	})

	t.Run("answers a generic 500 on provider failure", func(t *testing.T) {
		ts := newTestServer(t)
		ts.pay.CreateCheckoutFunc = func(ctx context.Context, in usecase.CreateCheckoutInput) (*model.Checkout, error) {
			return nil, errors.New("chargily: http 500")
		}

		resp := ts.post(t, "/api/chargily/create-checkout", map[string]any{
			"amount":     5000,
			"successUrl": "https://akramcoach.com/ok",
			"failureUrl": "https://akramcoach.com/fail",
		})
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.StatusCode)
		}
		body := decode[map[string]string](t, resp)
		if body["error"] != "Failed to create checkout" {
			t.Errorf("provider detail must not leak, got %q", body["error"])
		}
	})

	t.Run("rejects a non-positive amount before reaching the use case", func(t *testing.T) {
		ts := newTestServer(t)
		called := false
		ts.pay.CreateCheckoutFunc = func(ctx context.Context, in usecase.CreateCheckoutInput) (*model.Checkout, error) {
			called = true
			return nil, nil
		}

		resp := ts.post(t, "/api/chargily/create-checkout", map[string]any{
			"amount":     -3,
			"successUrl": "https://akramcoach.com/ok",
			"failureUrl": "https://akramcoach.com/fail",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if called {
			t.Error("use case must not run for a negative amount")
		}
	})
}

func TestVerifyPaymentEndpoint(t *testing.T) {
	paidVP := &model.VerifiedPayment{
		CheckoutID: "checkout_01",
		Method:     "chargily",
		Name:       "Sara",
		Email:      "sara@x.com",
		Plan:       "Elite",
		Amount:     5000,
		Currency:   "dzd",
		PaidAt:     time.Now(),
	}

	t.Run("returns provider-derived fields and notifies once", func(t *testing.T) {
		ts := newTestServer(t)
		ts.pay.VerifyCheckoutFunc = func(ctx context.Context, id string) (*model.VerifiedPayment, error) {
			cp := *paidVP
			return &cp, nil
		}

		resp := ts.post(t, "/api/chargily/verify-payment", map[string]string{"checkoutId": "checkout_01"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decode[map[string]any](t, resp)
		if body["ok"] != true || body["name"] != "Sara" || body["plan"] != "Elite" {
			t.Errorf("unexpected body: %v", body)
		}
		if body["amount"].(float64) != 5000 {
			t.Errorf("expected amount 5000, got %v", body["amount"])
		}

		// Page reload: same response, notification deduped downstream.
		resp = ts.post(t, "/api/chargily/verify-payment", map[string]string{"checkoutId": "checkout_01"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 on reload, got %d", resp.StatusCode)
		}
		resp.Body.Close()
		if len(ts.notify.Verified) != 2 {
			t.Fatalf("expected the notifier to be consulted on each verify, got %d", len(ts.notify.Verified))
		}
		if ts.notify.Verified[0].Amount != 5000 {
			t.Error("notifier must receive provider-derived amounts")
		}
	})

	t.Run("answers 400 with the provider status when not paid", func(t *testing.T) {
		ts := newTestServer(t)
		ts.pay.VerifyCheckoutFunc = func(ctx context.Context, id string) (*model.VerifiedPayment, error) {
			return nil, &usecase.NotPaidError{Status: model.CheckoutStatusPending}
		}

		resp := ts.post(t, "/api/chargily/verify-payment", map[string]string{"checkoutId": "checkout_01"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		body := decode[map[string]string](t, resp)
		if body["error"] != "Payment not completed" || body["status"] != "pending" {
			t.Errorf("unexpected body: %v", body)
		}
		if len(ts.notify.Verified) != 0 {
			t.Error("notifier must never run for a non-paid checkout")
		}
	})

	t.Run("answers 400 when checkoutId is missing", func(t *testing.T) {
		ts := newTestServer(t)
		resp := ts.post(t, "/api/chargily/verify-payment", map[string]string{})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	})

	t.Run("answers 502 when the provider is unreachable", func(t *testing.T) {
		ts := newTestServer(t)
		ts.pay.VerifyCheckoutFunc = func(ctx context.Context, id string) (*model.VerifiedPayment, error) {
			return nil, domain.ErrProviderUnavailable
		}
		resp := ts.post(t, "/api/chargily/verify-payment", map[string]string{"checkoutId": "checkout_01"})
		if resp.StatusCode != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	})

	t.Run("answers 404 for an unknown checkout", func(t *testing.T) {
		ts := newTestServer(t)
		resp := ts.post(t, "/api/chargily/verify-payment", map[string]string{"checkoutId": "nope"})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	})
}

func TestNotifyPaymentEndpoint(t *testing.T) {
	t.Run("accepts a legacy report", func(t *testing.T) {
		ts := newTestServer(t)
		resp := ts.post(t, "/api/notify-payment", map[string]any{
			"name":     "Karim",
			"email":    "karim@x.com",
			"plan":     "Standard",
			"amount":   3000,
			"currency": "DZD",
			"method":   "BaridiMob",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decode[map[string]bool](t, resp)
		if !body["ok"] {
			t.Error("expected ok:true")
		}
		if len(ts.notify.Legacy) != 1 || ts.notify.Legacy[0].Amount != 3000 {
			t.Errorf("legacy notification not forwarded: %+v", ts.notify.Legacy)
		}
	})

	t.Run("rejects a spoofed provider method with 403", func(t *testing.T) {
		ts := newTestServer(t)
		ts.notify.NotifyLegacyFunc = func(ctx context.Context, in usecase.LegacyNotification) (usecase.NotifyOutcome, error) {
			return "", domain.ErrVerifiedMethodDirect
		}
		resp := ts.post(t, "/api/notify-payment", map[string]any{
			"name":   "Mallory",
			"amount": 99999,
			"method": "Chargily",
		})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	})
}

func TestSendEmailEndpoint(t *testing.T) {
	t.Run("persists and returns the submission id", func(t *testing.T) {
		ts := newTestServer(t)
		resp := ts.post(t, "/api/send-email", map[string]any{
			"type":  "intake",
			"name":  "Sara",
			"email": "sara@x.com",
			"plan":  "Elite",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decode[map[string]any](t, resp)
		if body["id"] != "sub-1" {
			t.Errorf("expected submission id, got %v", body["id"])
		}
	})

	t.Run("warns but persists when the mailer is not configured", func(t *testing.T) {
		ts := newTestServerReady(t, false, true)
		var got usecase.IntakeInput
		ts.intake.SubmitFunc = func(ctx context.Context, in usecase.IntakeInput) (*model.Submission, error) {
			got = in
			return &model.Submission{ID: "sub-1", Type: in.Type, Name: in.Name, Email: in.Email}, nil
		}

		resp := ts.post(t, "/api/send-email", map[string]any{
			"type":  "intake",
			"name":  "Sara",
			"email": "sara@x.com",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decode[map[string]any](t, resp)
		if body["ok"] != false {
			t.Errorf("expected ok:false, got %v", body["ok"])
		}
		if warn, _ := body["warn"].(string); warn == "" {
			t.Error("expected a warning explaining the missing mailer")
		}
		if body["id"] != "sub-1" {
			t.Errorf("submission must still be persisted, got id %v", body["id"])
		}
		if got.Name != "Sara" {
			t.Errorf("submission not forwarded: %+v", got)
		}
	})

	t.Run("answers 502 when the coach email fails after persisting", func(t *testing.T) {
		ts := newTestServer(t)
		ts.intake.SubmitFunc = func(ctx context.Context, in usecase.IntakeInput) (*model.Submission, error) {
			return &model.Submission{ID: "sub-1"}, errors.New("resend: http 500")
		}
		resp := ts.post(t, "/api/send-email", map[string]any{"name": "Sara", "email": "sara@x.com"})
		if resp.StatusCode != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	})

	t.Run("answers 400 on validation failure", func(t *testing.T) {
		ts := newTestServer(t)
		ts.intake.SubmitFunc = func(ctx context.Context, in usecase.IntakeInput) (*model.Submission, error) {
			return nil, domain.ErrInvalidArgument
		}
		resp := ts.post(t, "/api/send-email", map[string]any{"name": ""})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	})
}

func TestChatEndpoint(t *testing.T) {
	t.Run("returns the assistant reply", func(t *testing.T) {
		ts := newTestServer(t)
		resp := ts.post(t, "/api/chat", map[string]any{"message": "hi", "floating": true})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decode[map[string]string](t, resp)
		if body["reply"] != "reply" {
			t.Errorf("unexpected reply: %q", body["reply"])
		}
	})

	t.Run("answers 429 when rate limited", func(t *testing.T) {
		ts := newTestServer(t)
		ts.chat.ChatFunc = func(ctx context.Context, ip, msg string, floating bool) (string, error) {
			return "", domain.ErrRateLimited
		}
		resp := ts.post(t, "/api/chat", map[string]any{"message": "hi"})
		if resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	})
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.http.URL+"/api/chargily/create-checkout", nil)
	req.Header.Set("Origin", "https://akramcoach.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://akramcoach.com" {
		t.Errorf("expected the configured origin to be allowed, got %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, ts.http.URL+"/api/chargily/create-checkout", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("Access-Control-Allow-Origin"); got == "https://evil.example" {
		t.Error("foreign origins must not be allowed")
	}
}
