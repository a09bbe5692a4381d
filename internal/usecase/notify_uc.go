package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/adapter"
	"akram-coaching-backend/internal/domain/ports/repository"
	"akram-coaching-backend/internal/infra/email"
	"akram-coaching-backend/internal/infra/logging"
	"akram-coaching-backend/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// NotifyOutcome classifies one notification attempt.
type NotifyOutcome string

const (
	NotifyOutcomeSent      NotifyOutcome = "sent"      // first time for this key, email delivered
	NotifyOutcomeDuplicate NotifyOutcome = "duplicate" // key already claimed, nothing sent
	NotifyOutcomeError     NotifyOutcome = "error"     // key claimed but the send failed
)

type NotificationUseCase interface {
	// NotifyVerified emails the coach about a provider-verified payment,
	// at most once per checkout id.
	NotifyVerified(ctx context.Context, p model.VerifiedPayment) (NotifyOutcome, error)
	// NotifyLegacy handles client-reported payments (CCP, BaridiMob, ...).
	// Provider-verified methods are rejected: those must go through
	// NotifyVerified so the provider record is the source of truth.
	NotifyLegacy(ctx context.Context, in LegacyNotification) (NotifyOutcome, error)
}

// LegacyNotification is a client-reported payment. None of it is verified.
type LegacyNotification struct {
	Method   string
	Name     string
	Email    string
	Plan     string
	Amount   int64
	Currency string
}

type notificationUC struct {
	logRepo     repository.NotificationLogRepository
	marker      repository.NotificationMarker
	submissions repository.SubmissionRepository
	mailer      adapter.Mailer
	coachEmail  string
	from        string
	log         *zerolog.Logger
}

func NewNotificationUseCase(
	logRepo repository.NotificationLogRepository,
	marker repository.NotificationMarker,
	submissions repository.SubmissionRepository,
	mailer adapter.Mailer,
	coachEmail, from string,
	log *zerolog.Logger,
) *notificationUC {
	return &notificationUC{
		logRepo:     logRepo,
		marker:      marker,
		submissions: submissions,
		mailer:      mailer,
		coachEmail:  coachEmail,
		from:        from,
		log:         log,
	}
}

func (u *notificationUC) NotifyVerified(ctx context.Context, p model.VerifiedPayment) (NotifyOutcome, error) {
	key := model.VerifiedDedupeKey(p.CheckoutID)
	out, err := u.notify(ctx, key, p, true)
	if out == NotifyOutcomeSent && u.submissions != nil && p.Email != "" {
		// Best effort: link the payment back to the client's intake record.
		if mpErr := u.submissions.MarkPaid(ctx, p.Email, p.Amount); mpErr != nil && !errors.Is(mpErr, domain.ErrNotFound) {
			logging.With(ctx, u.log).Warn().Err(mpErr).
				Str("email", logging.Redact(p.Email, false)).
				Msg("failed to mark submission paid")
		}
	}
	return out, err
}

func (u *notificationUC) NotifyLegacy(ctx context.Context, in LegacyNotification) (NotifyOutcome, error) {
	method := strings.TrimSpace(in.Method)
	if method == "" || strings.TrimSpace(in.Name) == "" {
		return "", fmt.Errorf("%w: method and name are required", domain.ErrInvalidArgument)
	}
	if strings.Contains(strings.ToLower(method), "chargily") {
		// Anyone can POST here; a claimed provider payment without a provider
		// record is exactly the spoof this path must not honor.
		return "", domain.ErrVerifiedMethodDirect
	}
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "dzd"
	}

	key := model.LegacyDedupeKey(method, in.Name, in.Amount)
	p := model.VerifiedPayment{
		Method:   method,
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Plan:     strings.TrimSpace(in.Plan),
		Amount:   in.Amount,
		Currency: currency,
		PaidAt:   time.Now(),
	}
	return u.notify(ctx, key, p, false)
}

// notify claims the dedupe key, then sends. The durable claim is the log row:
// its UNIQUE constraint decides races. The marker is only a fast path so
// repeat calls skip the database entirely.
func (u *notificationUC) notify(ctx context.Context, key string, p model.VerifiedPayment, verified bool) (NotifyOutcome, error) {
	l := logging.With(ctx, u.log)

	acquired, err := u.marker.Acquire(ctx, key, 0)
	if err != nil {
		// Marker outage: ask the log directly. The unique constraint on the
		// insert below still decides races.
		l.Warn().Err(err).Str("dedupe_key", key).Msg("notification marker unavailable")
		if exists, exErr := u.logRepo.Exists(ctx, key); exErr == nil && exists {
			metrics.IncNotification(p.Method, string(NotifyOutcomeDuplicate))
			return NotifyOutcomeDuplicate, nil
		}
	} else if !acquired {
		metrics.IncNotification(p.Method, string(NotifyOutcomeDuplicate))
		return NotifyOutcomeDuplicate, nil
	}

	rec := &model.PaymentNotification{
		ID:        ulid.Make().String(),
		DedupeKey: key,
		Method:    p.Method,
		Name:      p.Name,
		Email:     p.Email,
		Plan:      p.Plan,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Delivered: false,
		CreatedAt: time.Now(),
	}
	if err := u.logRepo.Save(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrAlreadyNotified) {
			metrics.IncNotification(p.Method, string(NotifyOutcomeDuplicate))
			return NotifyOutcomeDuplicate, nil
		}
		// Could not claim: release the marker so a later attempt is not
		// shadowed by a claim that never reached the database.
		if relErr := u.marker.Release(ctx, key); relErr != nil {
			l.Warn().Err(relErr).Str("dedupe_key", key).Msg("failed to release notification marker")
		}
		return "", err
	}

	subject, html, err := email.PaymentNotification(p, verified)
	if err == nil {
		err = u.mailer.Send(ctx, adapter.Email{
			From:    u.from,
			To:      u.coachEmail,
			ReplyTo: p.Email,
			Subject: subject,
			HTML:    html,
		})
	}
	if err != nil {
		// The key stays claimed: better a missed email than a double charge
		// announcement. The log row records the failed delivery.
		l.Error().Err(err).
			Str("dedupe_key", key).
			Str("method", p.Method).
			Msg("payment notification email failed")
		metrics.IncNotification(p.Method, string(NotifyOutcomeError))
		return NotifyOutcomeError, nil
	}

	if err := u.logRepo.MarkDelivered(ctx, rec.ID); err != nil {
		l.Warn().Err(err).Str("notification_id", rec.ID).Msg("failed to mark notification delivered")
	}
	l.Info().
		Str("dedupe_key", key).
		Str("method", p.Method).
		Bool("verified", verified).
		Msg("payment notification sent")
	metrics.IncNotification(p.Method, string(NotifyOutcomeSent))
	return NotifyOutcomeSent, nil
}
