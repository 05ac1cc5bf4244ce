package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmarsh-dev/lumapos-backend/internal/catalog"
	"github.com/dmarsh-dev/lumapos-backend/pkg/config"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/metrics"
	"github.com/dmarsh-dev/lumapos-backend/pkg/shopify"
)

const (
	defaultInterval = time.Hour

	jobName = "catalog-full-sync"
)

type dbPinger interface {
	Ping(context.Context) error
}

type fullSyncRunner interface {
	Run(ctx context.Context, opts catalog.RunOptions) (*catalog.FullSyncResult, error)
}

type ServiceParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          dbPinger
	Runner      fullSyncRunner
	JobMetrics  *metrics.JobMetrics
	SyncMetrics *metrics.SyncMetrics
}

// Service re-mirrors the remote catalog on a fixed cadence. Each cycle is one
// full cursor walk; the cursor checkpoint lets a cycle that dies mid-walk
// resume from the last finished page on the next cycle.
type Service struct {
	cfg         *config.Config
	logg        *logger.Logger
	db          dbPinger
	runner      fullSyncRunner
	jobMetrics  *metrics.JobMetrics
	syncMetrics *metrics.SyncMetrics
	interval    time.Duration

	checkpoint shopify.Cursor
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Runner == nil {
		return nil, errors.New("sync runner is required")
	}

	interval := params.Config.Sync.WorkerInterval
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Service{
		cfg:         params.Config,
		logg:        params.Logger,
		db:          params.DB,
		runner:      params.Runner,
		jobMetrics:  params.JobMetrics,
		syncMetrics: params.SyncMetrics,
		interval:    interval,
	}, nil
}

// Run starts the sync loop until the context is canceled. The first cycle
// fires immediately.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "catalog sync cycle failed", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "sync worker context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "catalog sync cycle failed", err)
			}
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	start := time.Now()

	opts := catalog.RunOptions{
		PageSize:    s.cfg.Sync.PageSize,
		Ceiling:     s.cfg.Sync.FullSyncCeiling,
		PageTimeout: s.cfg.Sync.PageTimeout,
		StartCursor: s.checkpoint,
		Checkpoint: func(cursor shopify.Cursor) {
			s.checkpoint = cursor
		},
	}

	result, err := s.runner.Run(ctx, opts)
	if result != nil {
		s.syncMetrics.AddImported(result.Imported)
		s.syncMetrics.AddFailed(result.Failed)
	}
	if err != nil {
		s.jobMetrics.IncFailure(jobName)
		return err
	}

	// a finished walk restarts from the beginning next cycle
	s.checkpoint = ""

	s.jobMetrics.ObserveDuration(jobName, time.Since(start))
	s.jobMetrics.IncSuccess(jobName)

	fields := map[string]any{
		"imported":    result.Imported,
		"failed":      result.Failed,
		"total":       result.Total,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "catalog sync cycle complete")

	return nil
}
