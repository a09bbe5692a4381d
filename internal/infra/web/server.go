package web

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"akram-coaching-backend/internal/domain/ports/repository"
	"akram-coaching-backend/internal/usecase"
)

// Server is the admin dashboard API. It listens on its own port, is never
// exposed through the public CORS surface, and every data route sits behind
// a JWT session minted at login.
type Server struct {
	submissions repository.SubmissionRepository
	statsUC     usecase.StatsUseCase
	auth        *AuthManager
	apiKey      string
	log         *zerolog.Logger
}

func NewServer(
	submissions repository.SubmissionRepository,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		submissions: submissions,
		statsUC:     statsUC,
		auth:        auth,
		apiKey:      apiKey,
		log:         logger,
	}
}

// RegisterRoutes sets up the routing for the admin API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/auth/login", s.loginHandler)
	mux.HandleFunc("/api/v1/auth/logout", s.logoutHandler)

	statsHandler := s.authMiddleware(statsHandler(s.statsUC))
	mux.Handle("/api/v1/stats", statsHandler)

	// A single handler for all /api/v1/submissions routes
	subsRouter := s.authMiddleware(s.submissionsRouter())
	mux.Handle("/api/v1/submissions", subsRouter)
	mux.Handle("/api/v1/submissions/", subsRouter)
}

// authMiddleware validates the admin session JWT on every data route.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.auth.cfg.HMACSecret) == 0 {
			s.log.Error().Msg("Admin JWT secret is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// keyMatches compares the login credential in constant time.
func (s *Server) keyMatches(candidate string) bool {
	if s.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.apiKey)) == 1
}

// submissionsRouter dispatches /api/v1/submissions[/{id}[/status]].
func (s *Server) submissionsRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/submissions")
		path = strings.Trim(path, "/")

		if path == "" { // /api/v1/submissions
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			submissionsListHandler(s.submissions)(w, r)
			return
		}

		// /api/v1/submissions/{id} or /api/v1/submissions/{id}/status
		parts := strings.SplitN(path, "/", 2)
		id := parts[0]
		if len(parts) == 2 && parts[1] == "status" {
			// PATCH is the documented method; PUT is tolerated for older
			// dashboard builds.
			if r.Method != http.MethodPatch && r.Method != http.MethodPut {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			submissionStatusHandler(s.submissions)(w, r, id)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		submissionGetHandler(s.submissions)(w, r, id)
	})
}
