package api

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"akram-coaching-backend/internal/infra/logging"
	"akram-coaching-backend/internal/usecase"
)

// Server is the public-facing API consumed by the site. Everything under
// /api is JSON; browsers talk to it cross-origin, so CORS is part of the
// contract.
type Server struct {
	payUC    usecase.PaymentUseCase
	notifyUC usecase.NotificationUseCase
	intakeUC usecase.IntakeUseCase
	chatUC   usecase.ChatUseCase

	corsOrigins  []string
	emailReady   bool
	gatewayReady bool
	log          *zerolog.Logger
}

func NewServer(
	payUC usecase.PaymentUseCase,
	notifyUC usecase.NotificationUseCase,
	intakeUC usecase.IntakeUseCase,
	chatUC usecase.ChatUseCase,
	corsOrigins []string,
	emailReady, gatewayReady bool,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		payUC:        payUC,
		notifyUC:     notifyUC,
		intakeUC:     intakeUC,
		chatUC:       chatUC,
		corsOrigins:  corsOrigins,
		emailReady:   emailReady,
		gatewayReady: gatewayReady,
		log:          logger,
	}
}

// Router builds the chi router with all public routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(s.requestContext)

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/send-email", s.handleSendEmail)
		r.Post("/notify-payment", s.handleNotifyPayment)
		r.Post("/chat", s.handleChat)
		r.Route("/chargily", func(r chi.Router) {
			r.Post("/create-checkout", s.handleCreateCheckout)
			r.Post("/verify-payment", s.handleVerifyPayment)
		})
	})
	return r
}

// requestContext stamps each request with a trace id and the client ip so
// downstream log lines correlate.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		if ip := clientIP(r); ip != "" {
			ctx = logging.WithClientIP(ctx, ip)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	// RealIP middleware already folded X-Forwarded-For into RemoteAddr.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
