package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/ports/adapter"
	"akram-coaching-backend/internal/infra/logging"
	"akram-coaching-backend/internal/infra/redis"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// RateLimiter bounds calls per key per window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type ChatUseCase interface {
	// Chat forwards a visitor message to the coaching assistant. floating
	// asks for answers short enough for the small on-page widget.
	Chat(ctx context.Context, clientIP, message string, floating bool) (string, error)
}

type chatUC struct {
	assistant adapter.Assistant
	limiter   RateLimiter
	limit     int
	window    time.Duration
	log       *zerolog.Logger
}

func NewChatUseCase(assistant adapter.Assistant, limiter RateLimiter, limit int, window time.Duration, log *zerolog.Logger) *chatUC {
	return &chatUC{assistant: assistant, limiter: limiter, limit: limit, window: window, log: log}
}

func (u *chatUC) Chat(ctx context.Context, clientIP, message string, floating bool) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", domain.ErrInvalidArgument)
	}

	if u.limiter != nil && clientIP != "" {
		allowed, err := u.limiter.Allow(ctx, redis.ClientChatKey(clientIP), u.limit, u.window)
		if err != nil {
			// Limiter outage: let the request through rather than lock the
			// widget for every visitor.
			logging.With(ctx, u.log).Warn().Err(err).Msg("chat rate limiter unavailable")
		} else if !allowed {
			return "", domain.ErrRateLimited
		}
	}

	reply, err := u.assistant.Reply(ctx, message, floating)
	if err != nil {
		logging.With(ctx, u.log).Error().Err(err).Msg("assistant reply failed")
		return "", err
	}
	return reply, nil
}
