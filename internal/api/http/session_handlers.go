package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/intake-hub/intake-hub/internal/application/store"
	"github.com/intake-hub/intake-hub/internal/domain/session"
)

type sessionSaveRequest struct {
	Channel        string           `json:"channel"`
	UserIdentifier string           `json:"userIdentifier"`
	Step           string           `json:"step"`
	Data           session.Document `json:"data"`
	Metadata       session.Document `json:"metadata,omitempty"`
	Trigger        json.RawMessage  `json:"trigger,omitempty"`
}

type switchRequest struct {
	Target   string `json:"target"`
	Identity string `json:"identity"`
}

type resumeRequest struct {
	Code string `json:"code"`
}

type syncRequest struct {
	SessionIDA string `json:"sessionIdA"`
	SessionIDB string `json:"sessionIdB"`
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request) {
	var req sessionSaveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	ch := session.Channel(req.Channel)
	if !ch.Valid() {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "unknown channel: "+req.Channel)
		return
	}
	if req.UserIdentifier == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userIdentifier is required")
		return
	}
	sess, err := s.storeSvc.Save(r.Context(), store.SaveParams{
		Channel:        ch,
		UserIdentifier: req.UserIdentifier,
		Step:           req.Step,
		Data:           req.Data,
		Metadata:       req.Metadata,
		Trigger:        req.Trigger,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SAVE_FAILED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) retrieveSession(w http.ResponseWriter, r *http.Request) {
	userIdentifier := chi.URLParam(r, "userIdentifier")
	var channel *session.Channel
	if raw := r.URL.Query().Get("channel"); raw != "" {
		ch := session.Channel(raw)
		if !ch.Valid() {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "unknown channel: "+raw)
			return
		}
		channel = &ch
	}
	sess, err := s.storeSvc.Retrieve(r.Context(), userIdentifier, channel)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RETRIEVE_FAILED", err.Error())
		return
	}
	if sess == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no active session")
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) synchronizeSessions(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.SessionIDA == "" || req.SessionIDB == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "sessionIdA and sessionIdB are required")
		return
	}
	result, err := s.syncSvc.Synchronize(r.Context(), req.SessionIDA, req.SessionIDB)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SYNC_FAILED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) switchChannel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	var req switchRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Identity == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "identity is required")
		return
	}
	var (
		result interface{}
		err    error
	)
	switch session.Channel(req.Target) {
	case session.ChannelWhatsApp:
		result, err = s.syncSvc.SwitchToWhatsApp(r.Context(), sessionID, req.Identity)
	case session.ChannelWeb:
		result, err = s.syncSvc.SwitchToWeb(r.Context(), sessionID, req.Identity)
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "unknown target channel: "+req.Target)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SWITCH_FAILED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) sessionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "limit must be a positive integer")
			return
		}
		limit = n
	}
	transitions, err := s.storeSvc.History(r.Context(), sessionID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "HISTORY_FAILED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"transitions": transitions})
}

func (s *Server) resumeByCode(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "code is required")
		return
	}
	sess, err := s.storeSvc.ResolveReferenceCode(r.Context(), req.Code)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RESUME_FAILED", err.Error())
		return
	}
	if sess == nil {
		respondError(w, http.StatusNotFound, "CODE_NOT_FOUND", "reference code not found or expired")
		return
	}
	respondJSON(w, http.StatusOK, sess)
}
