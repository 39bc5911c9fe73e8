package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) applicationStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	sess, err := s.storeSvc.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RETRIEVE_FAILED", err.Error())
		return
	}
	if sess == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}
	details, ok := s.statusSvc.DetailsForClient(sess)
	if !ok {
		respondError(w, http.StatusNotFound, "NO_STATUS", "application has not been submitted")
		return
	}
	respondJSON(w, http.StatusOK, details)
}
