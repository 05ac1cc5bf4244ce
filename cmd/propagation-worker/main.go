package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmarsh-dev/lumapos-backend/internal/inventory"
	"github.com/dmarsh-dev/lumapos-backend/pkg/config"
	"github.com/dmarsh-dev/lumapos-backend/pkg/db"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/metrics"
	"github.com/dmarsh-dev/lumapos-backend/pkg/migrate"
	"github.com/dmarsh-dev/lumapos-backend/pkg/outbox"
	"github.com/dmarsh-dev/lumapos-backend/pkg/shopify"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "propagation-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "propagation-worker",
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
		logg.Error(context.Background(), "failed to bootstrap remote inventory client", err)
		os.Exit(1)
	}

	propagator, err := inventory.NewPropagator(shopifyClient, outbox.NewRepository(dbClient.DB()), logg, cfg.Outbox.MaxAttempts)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory propagator", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Drainer:    propagator,
		JobMetrics: metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Outcomes:   metrics.NewPropagationMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create propagation worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting propagation worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "propagation worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "propagation worker shutting down gracefully")
}
