package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/intake-hub/intake-hub/internal/api/http"
	"github.com/intake-hub/intake-hub/internal/application/chat"
	appStatus "github.com/intake-hub/intake-hub/internal/application/status"
	"github.com/intake-hub/intake-hub/internal/application/store"
	appSync "github.com/intake-hub/intake-hub/internal/application/sync"
	"github.com/intake-hub/intake-hub/internal/application/workflowadmin"
	"github.com/intake-hub/intake-hub/internal/config"
	"github.com/intake-hub/intake-hub/internal/domain/catalog"
	"github.com/intake-hub/intake-hub/internal/domain/session"
	"github.com/intake-hub/intake-hub/internal/infrastructure/postgres"
	"github.com/intake-hub/intake-hub/internal/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var out = os.Stdout
	logger := zerolog.New(out).With().Timestamp().Logger()
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, migrations.Files); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	sessionRepo := postgres.NewSessionRepository(pool)
	transitionRepo := postgres.NewTransitionRepository(pool)
	refCodeRepo := postgres.NewReferenceCodeRepository(pool)

	// services
	storeSvc := store.NewService(sessionRepo, transitionRepo, refCodeRepo, logger)
	syncSvc := appSync.NewService(storeSvc, logger)
	statusSvc := appStatus.NewService(
		storeSvc,
		appStatus.NopNotifier{},
		appStatus.NopDeliveryService{},
		appStatus.NopPaymentInitiator{},
		logger,
	)
	commission, err := workflowadmin.NewCommissionCalculator(cfg.CommissionExpr)
	if err != nil {
		log.Fatalf("commission expression error: %v", err)
	}
	adminSvc := workflowadmin.NewService(storeSvc, statusSvc, workflowadmin.NopPDFGenerator{}, commission, logger)

	messenger := chat.LogMessenger{Logger: logger}
	links := chat.NewLinkBuilder(cfg.DeepLinkBase)
	chatEngine := chat.NewEngine(storeSvc, syncSvc, catalog.Default(), messenger, links, logger)

	// API server
	apiServer := httpapi.NewServer(
		storeSvc,
		syncSvc,
		chatEngine,
		statusSvc,
		adminSvc,
		cfg.AdminAPIKeyHash,
		cfg.RequestTimeout,
		logger,
	)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background expiry + idle-nudge sweep
	go func() {
		ticker := time.NewTicker(cfg.ExpirySweep)
		defer ticker.Stop()
		for range ticker.C {
			sweepCtx := context.Background()
			n, err := storeSvc.Expire(sweepCtx)
			if err != nil {
				logger.Warn().Err(err).Msg("expiry sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("expired", n).Msg("expired sessions removed")
			}
			idle, err := storeSvc.ListIdle(sweepCtx, session.ChannelWhatsApp, time.Now().UTC().Add(-cfg.IdleNudgeAfter), 100)
			if err != nil {
				logger.Warn().Err(err).Msg("idle sweep failed")
				continue
			}
			for _, sess := range idle {
				if err := chatEngine.NudgeIdle(sweepCtx, sess); err != nil {
					logger.Warn().Err(err).Str("sessionId", sess.SessionID).Msg("idle nudge failed")
				}
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
