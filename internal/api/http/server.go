package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	appChat "github.com/intake-hub/intake-hub/internal/application/chat"
	appStatus "github.com/intake-hub/intake-hub/internal/application/status"
	appStore "github.com/intake-hub/intake-hub/internal/application/store"
	appSync "github.com/intake-hub/intake-hub/internal/application/sync"
	appAdmin "github.com/intake-hub/intake-hub/internal/application/workflowadmin"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	storeSvc        *appStore.Service
	syncSvc         *appSync.Service
	chatEngine      *appChat.Engine
	statusSvc       *appStatus.Service
	adminSvc        *appAdmin.Service
	adminAPIKeyHash string
	requestTimeout  time.Duration
	logger          zerolog.Logger
}

func NewServer(
	storeSvc *appStore.Service,
	syncSvc *appSync.Service,
	chatEngine *appChat.Engine,
	statusSvc *appStatus.Service,
	adminSvc *appAdmin.Service,
	adminAPIKeyHash string,
	requestTimeout time.Duration,
	logger zerolog.Logger,
) *Server {
	return &Server{
		storeSvc:        storeSvc,
		syncSvc:         syncSvc,
		chatEngine:      chatEngine,
		statusSvc:       statusSvc,
		adminSvc:        adminSvc,
		adminAPIKeyHash: adminAPIKeyHash,
		requestTimeout:  requestTimeout,
		logger:          logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/healthz", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/webhook/whatsapp", s.whatsappWebhook)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.saveSession)
			r.Post("/sync", s.synchronizeSessions)
			r.Get("/{userIdentifier}", s.retrieveSession)
			r.Post("/{sessionId}/switch", s.switchChannel)
			r.Get("/{sessionId}/history", s.sessionHistory)
		})

		r.Get("/applications/{sessionId}/status", s.applicationStatus)
		r.Post("/resume", s.resumeByCode)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAPIKey)
			r.Route("/applications/{sessionId}", func(r chi.Router) {
				r.Post("/approve", s.approveApplication)
				r.Post("/reject", s.rejectApplication)
				r.Post("/request-documents", s.requestDocuments)
				r.Post("/status", s.rawTransition)
				r.Post("/credit-check", s.creditCheck)
				r.Post("/accept-period", s.acceptPeriod)
				r.Post("/blacklist-report", s.blacklistReport)
			})
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
