package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/intake-hub/intake-hub/internal/domain/session"
	"github.com/intake-hub/intake-hub/internal/domain/status"
)

// requireAPIKey guards the admin surface. The plaintext key arrives in
// X-API-Key and is checked against the configured bcrypt hash.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminAPIKeyHash == "" {
			respondError(w, http.StatusServiceUnavailable, "ADMIN_DISABLED", "admin API key not configured")
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing API key")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(s.adminAPIKeyHash), []byte(key)); err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type adminActionRequest struct {
	Notes string `json:"notes,omitempty"`
}

type rawTransitionRequest struct {
	Status string           `json:"status"`
	Notes  string           `json:"notes,omitempty"`
	Data   session.Document `json:"data,omitempty"`
}

type creditCheckRequest struct {
	Result                  string `json:"result"`
	Notes                   string `json:"notes,omitempty"`
	RecommendedPeriodMonths int    `json:"recommendedPeriodMonths,omitempty"`
	MaxPeriodMonths         int    `json:"maxPeriodMonths,omitempty"`
}

func (s *Server) approveApplication(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, s.adminSvc.Approve)
}

func (s *Server) rejectApplication(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, s.adminSvc.Reject)
}

func (s *Server) requestDocuments(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, s.adminSvc.RequestDocuments)
}

func (s *Server) adminAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, sessionID, notes string) (*session.Session, error),
) {
	sessionID := chi.URLParam(r, "sessionId")
	var req adminActionRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	sess, err := action(r.Context(), sessionID, req.Notes)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) rawTransition(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	var req rawTransitionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "status is required")
		return
	}
	sess, err := s.adminSvc.Transition(r.Context(), sessionID, status.Status(req.Status), req.Notes, req.Data)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) creditCheck(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	var req creditCheckRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	sess, ok := s.loadSession(w, r, sessionID)
	if !ok {
		return
	}
	var err error
	switch req.Result {
	case "good":
		err = s.statusSvc.ProcessGoodCredit(r.Context(), sess, req.Notes)
	case "poor":
		err = s.statusSvc.ProcessPoorCredit(r.Context(), sess, req.Notes)
	case "invalid_id":
		err = s.statusSvc.ProcessInvalidID(r.Context(), sess, req.Notes)
	case "insufficient_salary":
		if req.RecommendedPeriodMonths < 1 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "recommendedPeriodMonths is required")
			return
		}
		err = s.statusSvc.ProcessInsufficientSalary(r.Context(), sess, req.RecommendedPeriodMonths, req.Notes)
	case "contract_expiring":
		if req.MaxPeriodMonths < 1 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "maxPeriodMonths is required")
			return
		}
		err = s.statusSvc.ProcessContractExpiring(r.Context(), sess, req.MaxPeriodMonths, req.Notes)
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "unknown credit check result: "+req.Result)
		return
	}
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) acceptPeriod(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	sess, ok := s.loadSession(w, r, sessionID)
	if !ok {
		return
	}
	if err := s.statusSvc.AcceptRecommendedPeriod(r.Context(), sess); err != nil {
		s.respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) blacklistReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	sess, ok := s.loadSession(w, r, sessionID)
	if !ok {
		return
	}
	if err := s.statusSvc.RequestBlacklistReport(r.Context(), sess); err != nil {
		s.respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request, sessionID string) (*session.Session, bool) {
	sess, err := s.storeSvc.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RETRIEVE_FAILED", err.Error())
		return nil, false
	}
	if sess == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) respondActionError(w http.ResponseWriter, err error) {
	if errors.Is(err, status.ErrInvalidTransition) {
		respondError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "ACTION_FAILED", err.Error())
}
