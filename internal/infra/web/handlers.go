package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/repository"
	"akram-coaching-backend/internal/usecase"
)

type loginRequest struct {
	APIKey string `json:"api_key"`
}

// loginHandler exchanges the configured admin key for a session JWT.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.keyMatches(req.APIKey) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("admin login rejected")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// statsHandler serves the dashboard overview numbers.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := statsUC.Dashboard(r.Context())
		if err != nil {
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(stats)
	}
}

// submissionsListHandler returns a paginated list of submissions.
// Accepts 'offset', 'limit' and 'status' query parameters.
func submissionsListHandler(subs repository.SubmissionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 200 {
			limit = 50 // Default page size
		}
		if offset < 0 {
			offset = 0
		}
		status := model.SubmissionStatus(r.URL.Query().Get("status"))
		switch status {
		case "", model.SubmissionStatusPending, model.SubmissionStatusContacted, model.SubmissionStatusResolved:
		default:
			http.Error(w, "Unknown status filter", http.StatusBadRequest)
			return
		}

		list, err := subs.List(ctx, status, offset, limit)
		if err != nil {
			http.Error(w, "Failed to list submissions", http.StatusInternalServerError)
			return
		}
		total, err := subs.Count(ctx, status)
		if err != nil {
			http.Error(w, "Failed to count submissions", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data   []*model.Submission `json:"data"`
			Total  int                 `json:"total"`
			Limit  int                 `json:"limit"`
			Offset int                 `json:"offset"`
		}{
			Data:   list,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

func submissionGetHandler(subs repository.SubmissionRepository) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, id string) {
		sub, err := subs.FindByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to get submission", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(sub)
	}
}

type statusUpdateRequest struct {
	Status model.SubmissionStatus `json:"status"`
}

// submissionStatusHandler moves a submission through the contact workflow.
func submissionStatusHandler(subs repository.SubmissionRepository) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, id string) {
		var req statusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		switch req.Status {
		case model.SubmissionStatusPending, model.SubmissionStatusContacted, model.SubmissionStatusResolved:
		default:
			http.Error(w, "Unknown status", http.StatusBadRequest)
			return
		}

		if err := subs.UpdateStatus(r.Context(), id, req.Status); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to update status", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "status": req.Status})
	}
}
