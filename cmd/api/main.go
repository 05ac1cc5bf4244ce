package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmarsh-dev/lumapos-backend/api/routes"
	"github.com/dmarsh-dev/lumapos-backend/internal/catalog"
	"github.com/dmarsh-dev/lumapos-backend/internal/inventory"
	"github.com/dmarsh-dev/lumapos-backend/internal/sales"
	"github.com/dmarsh-dev/lumapos-backend/pkg/config"
	"github.com/dmarsh-dev/lumapos-backend/pkg/db"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/migrate"
	"github.com/dmarsh-dev/lumapos-backend/pkg/outbox"
	"github.com/dmarsh-dev/lumapos-backend/pkg/shopify"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	shopifyClient, err := shopify.NewClient(context.Background(), cfg.Shopify, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap remote catalog client", err)
		os.Exit(1)
	}

	store, err := catalog.NewStore(catalog.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog store", err)
		os.Exit(1)
	}

	synchronizer, err := catalog.NewSynchronizer(shopifyClient, store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog synchronizer", err)
		os.Exit(1)
	}

	orchestrator, err := catalog.NewOrchestrator(synchronizer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync orchestrator", err)
		os.Exit(1)
	}

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outboxRepo, logg)

	salesSvc, err := sales.NewService(sales.NewRepository(dbClient.DB()), dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sale service", err)
		os.Exit(1)
	}

	propagator, err := inventory.NewPropagator(shopifyClient, outboxRepo, logg, cfg.Outbox.MaxAttempts)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory propagator", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Synchronizer: synchronizer,
			Orchestrator: orchestrator,
			Store:        store,
			Sales:        salesSvc,
			Propagator:   propagator,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
