package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmarsh-dev/lumapos-backend/internal/inventory"
	"github.com/dmarsh-dev/lumapos-backend/pkg/config"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
)

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

type fakeDrainer struct {
	batches [][]inventory.ItemOutcome
	err     error
	calls   int
	limits  []int
}

func (f *fakeDrainer) Drain(_ context.Context, limit int) ([]inventory.ItemOutcome, error) {
	f.calls++
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func newTestService(t *testing.T, drainer *fakeDrainer, db *fakeDB) *Service {
	t.Helper()

	cfg := &config.Config{}
	cfg.Outbox.BatchSize = 25
	cfg.Outbox.PollIntervalMS = 10

	service, err := NewService(ServiceParams{
		Config:  cfg,
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:      db,
		Drainer: drainer,
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return service
}

func TestProcessBatchReportsProcessedOutcomes(t *testing.T) {
	drainer := &fakeDrainer{
		batches: [][]inventory.ItemOutcome{
			{
				{ProductID: "p1", Delta: -2, Outcome: enums.PropagationSuccess},
				{ProductID: "p2", Delta: -1, Outcome: enums.PropagationError, Error: "boom"},
			},
		},
	}
	service := newTestService(t, drainer, &fakeDB{})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if drainer.limits[0] != 25 {
		t.Fatalf("drain limit = %d, want 25", drainer.limits[0])
	}
}

func TestProcessBatchEmptyQueueReportsIdle(t *testing.T) {
	drainer := &fakeDrainer{}
	service := newTestService(t, drainer, &fakeDB{})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected idle batch")
	}
}

func TestRunFailsWhenDatabaseUnreachable(t *testing.T) {
	service := newTestService(t, &fakeDrainer{}, &fakeDB{pingErr: errors.New("down")})

	if err := service.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness error")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	drainer := &fakeDrainer{}
	service := newTestService(t, drainer, &fakeDB{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	base := 100 * time.Millisecond
	current := base
	for i := 0; i < 10; i++ {
		current = nextBackoff(current, base, maxBackoff)
	}
	if current != maxBackoff {
		t.Fatalf("backoff did not cap: %v", current)
	}
	if got := nextBackoff(base, base, maxBackoff); got != 2*base {
		t.Fatalf("backoff step = %v, want %v", got, 2*base)
	}
}
