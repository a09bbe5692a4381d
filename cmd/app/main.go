package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"akram-coaching-backend/internal/config"
	"akram-coaching-backend/internal/domain/ports/adapter"
	"akram-coaching-backend/internal/infra/api"
	"akram-coaching-backend/internal/infra/assistant"
	pg "akram-coaching-backend/internal/infra/db/postgres"
	"akram-coaching-backend/internal/infra/email"
	"akram-coaching-backend/internal/infra/logging"
	"akram-coaching-backend/internal/infra/metrics"
	"akram-coaching-backend/internal/infra/payment"
	red "akram-coaching-backend/internal/infra/redis"
	"akram-coaching-backend/internal/infra/web"
	"akram-coaching-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway/mailer fallbacks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Warn().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	rateLimiter := red.NewRateLimiter(redisClient)
	marker := red.NewNotificationMarker(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	submissionRepo := pg.NewSubmissionRepo(pool)
	notificationRepo := pg.NewNotificationLogRepo(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	gateway, err = payment.NewChargilyGateway(cfg.Chargily.APIKey, cfg.Chargily.Mode, cfg.Chargily.BaseURL)
	gatewayReady := err == nil
	if err != nil {
		if cfg.Runtime.Dev {
			log.Warn().Err(err).Msg("falling back to noop payment gateway")
			gateway = payment.NewNoopGateway()
		} else {
			// Server still comes up: checkout endpoints answer a generic
			// error until the credentials are fixed.
			log.Error().Err(err).Msg("chargily gateway not configured; checkout disabled")
			gateway = payment.NewDisabledGateway()
		}
	}

	// ---- Mailer ----
	var mailer adapter.Mailer
	mailer, err = email.NewResendMailer(cfg.Email.ResendAPIKey, "")
	emailReady := err == nil
	if err != nil {
		// Intake keeps persisting without credentials; /api/send-email
		// answers ok:false with a warning instead of failing.
		log.Warn().Err(err).Msg("resend mailer not configured; submissions persist without email")
		mailer = email.NewNoopMailer()
	}

	// ---- Assistant ----
	var chatUC usecase.ChatUseCase
	if cfg.Assistant.GeminiKey != "" {
		bot, err := assistant.NewGeminiAssistant(ctx, cfg.Assistant)
		if err != nil {
			log.Fatal().Err(err).Msg("gemini assistant init failed")
		}
		chatUC = usecase.NewChatUseCase(bot, rateLimiter, cfg.Assistant.RateLimit, cfg.Assistant.RateWindow, log)
		log.Info().Str("model", cfg.Assistant.Model).Msg("assistant: gemini")
	} else {
		log.Warn().Msg("assistant.gemini_key not set; /api/chat disabled")
		chatUC = usecase.NewChatUseCase(unavailableAssistant{}, nil, 0, 0, log)
	}

	// ---- Use cases ----
	paymentUC := usecase.NewPaymentUseCase(gateway, cfg.Chargily.AllowedRedirectOrigins, log)
	notifyUC := usecase.NewNotificationUseCase(
		notificationRepo, marker, submissionRepo, mailer,
		cfg.Email.CoachEmail, cfg.Email.From, log,
	)
	intakeUC := usecase.NewIntakeUseCase(
		submissionRepo, mailer,
		cfg.Email.CoachEmail, cfg.Email.From, cfg.Email.ClientFrom, log,
	)
	statsUC := usecase.NewStatsUseCase(submissionRepo, notificationRepo)

	// ---- Public API server ----
	apiSrv := api.NewServer(paymentUC, notifyUC, intakeUC, chatUC,
		cfg.Server.CORSOrigins, emailReady, gatewayReady, log)
	public := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiSrv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", public.Addr).Msg("public api listening")
		if err := public.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("public api server error")
			cancel()
		}
	}()

	// ---- Admin server (dashboard API + metrics) ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	adminSrv := web.NewServer(submissionRepo, statsUC, auth, cfg.Admin.APIKey, log)
	adminMux := http.NewServeMux()
	adminSrv.RegisterRoutes(adminMux)
	metrics.MustRegister()
	adminMux.Handle("/metrics", promhttp.Handler())
	admin := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           adminMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", admin.Addr).Msg("admin api listening")
		if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("admin server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		log.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := public.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("public api shutdown")
	}
	if err := admin.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("admin shutdown")
	}
}

// unavailableAssistant answers /api/chat when no provider is configured.
type unavailableAssistant struct{}

func (unavailableAssistant) Reply(context.Context, string, bool) (string, error) {
	return "", errors.New("assistant not configured")
}
