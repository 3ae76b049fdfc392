package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vbonduro/dikaadmin/internal/api"
	"github.com/vbonduro/dikaadmin/internal/catalog"
	"github.com/vbonduro/dikaadmin/internal/config"
	"github.com/vbonduro/dikaadmin/internal/db"
	"github.com/vbonduro/dikaadmin/internal/events"
	"github.com/vbonduro/dikaadmin/internal/logging"
	"github.com/vbonduro/dikaadmin/internal/order"
	"github.com/vbonduro/dikaadmin/internal/photostore/local"
	"github.com/vbonduro/dikaadmin/internal/service"
	"github.com/vbonduro/dikaadmin/internal/session"
	"github.com/vbonduro/dikaadmin/internal/store"
	"github.com/vbonduro/dikaadmin/internal/web"
	"github.com/vbonduro/dikaadmin/internal/web/templates"
)

const (
	sweepInterval   = 5 * time.Minute
	janitorInterval = 3 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return
	}
	if cfg.CSRFKey == "" {
		logger.Warn("CSRF_KEY is not set, form CSRF protection is off")
	}

	transitions, err := order.TransitionsByName(cfg.OrderTransitions)
	if err != nil {
		logger.Error("invalid ORDER_TRANSITIONS", "error", err)
		return
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	tokenStore := store.NewTokenStore(database)
	activityStore := store.NewActivityStore(database)

	photoStg, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	publisher, err := events.New(events.Config{
		Backend:      cfg.EventsBackend,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize event publisher", "error", err)
		return
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout)
	sessions := session.NewManager(
		session.NewCookieStore(cfg.SessionKey, cfg.CookieSecure),
		tokenStore,
		session.NewAdminStore(tokenStore),
		logger,
	)
	drafts := catalog.NewDrafts(photoStg, cfg.DraftTTL, logger)

	server := web.NewServer(web.Services{
		Auth:      service.NewAuthService(client, logger),
		Orders:    service.NewOrderService(client, transitions, activityStore, publisher, logger),
		Catalog:   service.NewCatalogService(client, drafts, logger),
		Customers: service.NewCustomerService(client, logger),
		Dashboard: service.NewDashboardService(client, client, client, activityStore, logger),
	}, sessions, photoStg, templates.FS, web.Options{
		CSRFKey:         cfg.CSRFKey,
		CookieSecure:    cfg.CookieSecure,
		TrustedOrigins:  cfg.TrustedOrigins,
		LoginRatePerMin: cfg.LoginRatePerMin,
		ViewTTL:         cfg.ViewTTL,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go drafts.RunSweeper(ctx, sweepInterval)
	go server.RunJanitor(ctx, janitorInterval)

	srv := server.HTTPServer(cfg.ListenAddr)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
}
