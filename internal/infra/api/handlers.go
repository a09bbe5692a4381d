package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/infra/logging"
	"akram-coaching-backend/internal/infra/metrics"
	"akram-coaching-backend/internal/usecase"
)

// Request body caps. Intake is bigger because of the base64 progress photos.
const (
	maxBodyBytes       = 1 << 20  // 1 MiB
	maxIntakeBodyBytes = 25 << 20 // 25 MiB
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// coerceAmount accepts the amount as a JSON number or numeric string; the
// forms are not consistent about which they send.
func coerceAmount(n json.Number) (int64, bool) {
	if n == "" {
		return 0, false
	}
	if v, err := n.Int64(); err == nil {
		return v, true
	}
	if f, err := n.Float64(); err == nil {
		return int64(f), true
	}
	return 0, false
}

// ----- POST /api/chargily/create-checkout -----

type createCheckoutRequest struct {
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	SuccessURL  string      `json:"successUrl"`
	FailureURL  string      `json:"failureUrl"`
	ClientName  string      `json:"clientName"`
	ClientEmail string      `json:"clientEmail"`
	PlanName    string      `json:"planName"`
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if !decodeBody(w, r, maxBodyBytes, &req) {
		metrics.CheckoutCreateRequests.WithLabelValues("fail", "bad_json").Inc()
		return
	}
	amount, ok := coerceAmount(req.Amount)
	if !ok || amount <= 0 {
		metrics.CheckoutCreateRequests.WithLabelValues("fail", "bad_amount").Inc()
		writeError(w, http.StatusBadRequest, "Amount must be a positive integer")
		return
	}

	co, err := s.payUC.CreateCheckout(r.Context(), usecase.CreateCheckoutInput{
		Amount:      amount,
		Currency:    req.Currency,
		SuccessURL:  req.SuccessURL,
		FailureURL:  req.FailureURL,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		PlanName:    req.PlanName,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOriginNotAllowed):
			metrics.CheckoutCreateRequests.WithLabelValues("fail", "bad_origin").Inc()
			writeError(w, http.StatusBadRequest, "Redirect URL origin is not allowed")
		case errors.Is(err, domain.ErrInvalidArgument):
			metrics.CheckoutCreateRequests.WithLabelValues("fail", "bad_json").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrGatewayNotConfigured):
			// Generic on purpose: missing credentials are an operator
			// problem, not something the paying client should see.
			metrics.CheckoutCreateRequests.WithLabelValues("fail", "not_configured").Inc()
			logging.With(r.Context(), s.log).Error().Err(err).Msg("create checkout failed")
			writeError(w, http.StatusInternalServerError, "Failed to create checkout")
		default:
			metrics.CheckoutCreateRequests.WithLabelValues("fail", "provider_error").Inc()
			logging.With(r.Context(), s.log).Error().Err(err).Msg("create checkout failed")
			writeError(w, http.StatusInternalServerError, "Failed to create checkout")
		}
		return
	}

	metrics.CheckoutCreateRequests.WithLabelValues("ok", "").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"checkoutId":  co.ID,
		"checkoutUrl": co.CheckoutURL,
	})
}

// ----- POST /api/chargily/verify-payment -----

type verifyPaymentRequest struct {
	CheckoutID string `json:"checkoutId"`
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := "fail"
	defer func() {
		metrics.PaymentVerifyDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	var req verifyPaymentRequest
	if !decodeBody(w, r, maxBodyBytes, &req) {
		metrics.PaymentVerifyRequests.WithLabelValues("fail", "bad_json").Inc()
		return
	}
	if req.CheckoutID == "" {
		metrics.PaymentVerifyRequests.WithLabelValues("fail", "missing_checkout_id").Inc()
		writeError(w, http.StatusBadRequest, "checkoutId is required")
		return
	}

	ctx := logging.WithCheckoutID(r.Context(), req.CheckoutID)
	vp, err := s.payUC.VerifyCheckout(ctx, req.CheckoutID)
	if err != nil {
		var notPaid *usecase.NotPaidError
		switch {
		case errors.As(err, &notPaid):
			metrics.PaymentVerifyRequests.WithLabelValues("fail", "not_paid").Inc()
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":  "Payment not completed",
				"status": string(notPaid.Status),
			})
		case errors.Is(err, domain.ErrCheckoutNotFound):
			metrics.PaymentVerifyRequests.WithLabelValues("fail", "not_found").Inc()
			writeError(w, http.StatusNotFound, "Checkout not found")
		case errors.Is(err, domain.ErrProviderUnavailable):
			metrics.PaymentVerifyRequests.WithLabelValues("fail", "provider_unavailable").Inc()
			writeError(w, http.StatusBadGateway, "Payment provider unavailable")
		case errors.Is(err, domain.ErrInvalidArgument):
			metrics.PaymentVerifyRequests.WithLabelValues("fail", "missing_checkout_id").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			metrics.PaymentVerifyRequests.WithLabelValues("fail", "unknown").Inc()
			logging.With(ctx, s.log).Error().Err(err).Msg("verify payment failed")
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	// Verified. The notification is a side effect: its failure must not turn
	// a genuinely paid checkout into an error for the customer.
	if _, err := s.notifyUC.NotifyVerified(ctx, *vp); err != nil {
		logging.With(ctx, s.log).Error().Err(err).Msg("verified payment notification failed")
	}

	result = "ok"
	metrics.PaymentVerifyRequests.WithLabelValues("ok", "").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"name":     vp.Name,
		"email":    vp.Email,
		"plan":     vp.Plan,
		"amount":   vp.Amount,
		"currency": vp.Currency,
	})
}

// ----- POST /api/notify-payment (legacy client-reported path) -----

type notifyPaymentRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Plan     string      `json:"plan"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	Method   string      `json:"method"`
}

func (s *Server) handleNotifyPayment(w http.ResponseWriter, r *http.Request) {
	var req notifyPaymentRequest
	if !decodeBody(w, r, maxBodyBytes, &req) {
		return
	}
	amount, _ := coerceAmount(req.Amount)

	_, err := s.notifyUC.NotifyLegacy(r.Context(), usecase.LegacyNotification{
		Method:   req.Method,
		Name:     req.Name,
		Email:    req.Email,
		Plan:     req.Plan,
		Amount:   amount,
		Currency: req.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrVerifiedMethodDirect):
			writeError(w, http.StatusForbidden, "Chargily payments must go through server-side verification")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			logging.With(r.Context(), s.log).Error().Err(err).Msg("legacy payment notification failed")
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}
	// Duplicates and failed sends both answer ok: the client has nothing
	// actionable to do either way and retrying would not help.
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ----- POST /api/send-email (intake / contact / booking forms) -----

type sendEmailRequest struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
	Age      string `json:"age"`
	Gender   string `json:"gender"`
	Country  string `json:"country"`
	Weight   string `json:"weight"`
	Height   string `json:"height"`
	Goal     string `json:"goal"`
	Injuries string `json:"injuries"`
	Plan     string `json:"plan"`
	Message  string `json:"message"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Photos   struct {
		Front string `json:"front"`
		Side  string `json:"side"`
		Back  string `json:"back"`
	} `json:"photos"`
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if !decodeBody(w, r, maxIntakeBodyBytes, &req) {
		return
	}

	sub, err := s.intakeUC.Submit(r.Context(), usecase.IntakeInput{
		Type:     model.SubmissionType(req.Type),
		Name:     req.Name,
		Email:    req.Email,
		WhatsApp: req.WhatsApp,
		Age:      req.Age,
		Gender:   req.Gender,
		Country:  req.Country,
		Weight:   req.Weight,
		Height:   req.Height,
		Goal:     req.Goal,
		Injuries: req.Injuries,
		Plan:     req.Plan,
		Message:  req.Message,
		Date:     req.Date,
		Time:     req.Time,
		Photos: model.ProgressPhotos{
			Front: req.Photos.Front,
			Side:  req.Photos.Side,
			Back:  req.Photos.Back,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		case sub != nil:
			// Persisted but the coach email did not go out.
			logging.With(r.Context(), s.log).Error().Err(err).
				Str("submission_id", sub.ID).
				Msg("coach email failed")
			writeError(w, http.StatusBadGateway, "Failed to send email")
		default:
			logging.With(r.Context(), s.log).Error().Err(err).Msg("submission save failed")
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	if !s.emailReady {
		// Saved but not mailed: the mailer has no credentials. Still a 200
		// so the form flow completes; the warning tells the front end why
		// no confirmation arrives.
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":   false,
			"warn": "Email service is not configured; submission was saved",
			"id":   sub.ID,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": sub.ID})
}

// ----- POST /api/chat -----

type chatRequest struct {
	Message  string `json:"message"`
	Floating bool   `json:"floating"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, maxBodyBytes, &req) {
		return
	}

	reply, err := s.chatUC.Chat(r.Context(), clientIP(r), req.Message, req.Floating)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "Too many messages, slow down")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "Assistant unavailable")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// ----- GET /api/health -----

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"email_ready":   s.emailReady,
		"gateway_ready": s.gatewayReady,
	})
}
