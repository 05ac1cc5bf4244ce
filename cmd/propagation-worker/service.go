package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/dmarsh-dev/lumapos-backend/internal/inventory"
	"github.com/dmarsh-dev/lumapos-backend/pkg/config"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/metrics"
)

const (
	defaultBatchSize = 50
	defaultPollMs    = 500
	maxBackoff       = 10 * time.Second
	jitterWindow     = 250 * time.Millisecond

	jobName = "inventory-propagation"
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbPinger interface {
	Ping(context.Context) error
}

type adjustmentDrainer interface {
	Drain(ctx context.Context, limit int) ([]inventory.ItemOutcome, error)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbPinger
	Drainer    adjustmentDrainer
	JobMetrics *metrics.JobMetrics
	Outcomes   *metrics.PropagationMetrics
}

// Service drains crash-leftover stock adjustments on a poll loop. Normal
// propagation happens in-process right after a sale commits; this worker only
// picks up rows that survived a crash or a transient remote outage.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dbPinger
	drainer      adjustmentDrainer
	jobMetrics   *metrics.JobMetrics
	outcomes     *metrics.PropagationMetrics
	batchSize    int
	pollInterval time.Duration
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
	if params.Drainer == nil {
		return nil, errors.New("drainer is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		drainer:      params.Drainer,
		jobMetrics:   params.JobMetrics,
		outcomes:     params.Outcomes,
		batchSize:    batch,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "propagation worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "propagation batch error", err)
			s.jobMetrics.IncFailure(jobName)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	start := time.Now()

	outcomes, err := s.drainer.Drain(ctx, s.batchSize)
	if err != nil {
		return false, err
	}
	if len(outcomes) == 0 {
		return false, nil
	}

	s.jobMetrics.ObserveDuration(jobName, time.Since(start))
	s.jobMetrics.IncSuccess(jobName)

	counts := map[string]int{}
	for _, outcome := range outcomes {
		s.outcomes.IncOutcome(string(outcome.Outcome))
		counts[string(outcome.Outcome)]++
	}

	fields := map[string]any{"drained": len(outcomes)}
	for outcome, count := range counts {
		fields["outcome_"+outcome] = count
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "stock adjustments drained")

	return true, nil
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
