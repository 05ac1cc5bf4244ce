package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dmarsh-dev/lumapos-backend/internal/catalog"
	"github.com/dmarsh-dev/lumapos-backend/pkg/config"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/shopify"
)

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

type fakeRunner struct {
	result *catalog.FullSyncResult
	err    error
	opts   []catalog.RunOptions
}

func (f *fakeRunner) Run(_ context.Context, opts catalog.RunOptions) (*catalog.FullSyncResult, error) {
	f.opts = append(f.opts, opts)
	if opts.Checkpoint != nil {
		opts.Checkpoint(shopify.Cursor("page-2"))
	}
	return f.result, f.err
}

func newTestService(t *testing.T, runner *fakeRunner, db *fakeDB) *Service {
	t.Helper()

	cfg := &config.Config{}
	cfg.Sync.PageSize = 100
	cfg.Sync.FullSyncCeiling = 1000

	service, err := NewService(ServiceParams{
		Config: cfg,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:     db,
		Runner: runner,
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return service
}

func TestRunCycleClearsCheckpointOnSuccess(t *testing.T) {
	runner := &fakeRunner{result: &catalog.FullSyncResult{Imported: 7, Total: 7}}
	service := newTestService(t, runner, &fakeDB{})

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle returned error: %v", err)
	}

	if len(runner.opts) != 1 {
		t.Fatalf("runner called %d times, want 1", len(runner.opts))
	}
	if runner.opts[0].PageSize != 100 || runner.opts[0].Ceiling != 1000 {
		t.Fatalf("run options not sourced from config: %+v", runner.opts[0])
	}
	if service.checkpoint != "" {
		t.Fatalf("checkpoint not cleared after full walk: %q", service.checkpoint)
	}
}

func TestRunCycleKeepsCheckpointOnFailure(t *testing.T) {
	runner := &fakeRunner{
		result: &catalog.FullSyncResult{Imported: 3, Total: 5},
		err:    errors.New("remote unavailable"),
	}
	service := newTestService(t, runner, &fakeDB{})

	if err := service.runCycle(context.Background()); err == nil {
		t.Fatalf("expected cycle error")
	}
	if service.checkpoint != shopify.Cursor("page-2") {
		t.Fatalf("checkpoint = %q, want page-2", service.checkpoint)
	}

	// the next cycle resumes from the surviving checkpoint
	_ = service.runCycle(context.Background())
	if runner.opts[1].StartCursor != shopify.Cursor("page-2") {
		t.Fatalf("second cycle start cursor = %q, want page-2", runner.opts[1].StartCursor)
	}
}

func TestRunFailsWhenDatabaseUnreachable(t *testing.T) {
	service := newTestService(t, &fakeRunner{}, &fakeDB{pingErr: errors.New("down")})

	if err := service.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness error")
	}
}
