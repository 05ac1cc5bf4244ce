package catalog

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/shopify"
)

// pageSyncer is the slice of the synchronizer the orchestrator consumes.
type pageSyncer interface {
	SyncPage(ctx context.Context, input SyncPageInput) (*SyncPageResult, error)
}

// Orchestrator composes cursor-mode pages into a full-catalog pass,
// aggregating progress and surfacing it to a caller-supplied callback.
type Orchestrator struct {
	syncer pageSyncer
	logg   *logger.Logger
}

// RunOptions tunes one orchestrated pass.
type RunOptions struct {
	PageSize int
	Status   string
	Ceiling  int

	// PageTimeout bounds each page fetch. Zero means no per-page deadline.
	PageTimeout time.Duration

	// Progress receives the cumulative imported count after every record.
	Progress ProgressFunc

	// Checkpoint receives the cursor after each completed page so the caller
	// can persist it and resume an interrupted pass.
	Checkpoint func(cursor shopify.Cursor)

	// StartCursor resumes a previous pass. Leave empty to start from the top.
	StartCursor shopify.Cursor
}

// NewOrchestrator wires a full-pass orchestrator over a page synchronizer.
func NewOrchestrator(syncer pageSyncer, logg *logger.Logger) (*Orchestrator, error) {
	if syncer == nil {
		return nil, fmt.Errorf("page synchronizer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Orchestrator{syncer: syncer, logg: logg}, nil
}

// Run drives cursor pages until the remote reports no more, the ceiling is
// hit, or the context is cancelled. Already-imported pages stay committed on
// early exit; the last checkpointed cursor resumes the pass.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*FullSyncResult, error) {
	if opts.Ceiling <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ceiling must be positive")
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > shopify.MaxPageSize {
		pageSize = shopify.MaxPageSize
	}

	result := &FullSyncResult{}
	cursor := opts.StartCursor

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		input := SyncPageInput{Cursor: cursor, Limit: pageSize}
		if cursor.IsZero() {
			input.Status = opts.Status
		}
		if opts.Progress != nil {
			base := result.Imported
			input.Progress = func(n int) { opts.Progress(base + n) }
		}

		page, err := o.syncPage(ctx, input, opts.PageTimeout)
		if err != nil {
			return result, err
		}

		result.Imported += page.Imported
		result.Failed += page.Failed
		result.Total += page.Total

		if opts.Checkpoint != nil {
			opts.Checkpoint(page.NextCursor)
		}

		logCtx := o.logg.WithFields(ctx, map[string]any{
			"imported": result.Imported,
			"failed":   result.Failed,
			"total":    result.Total,
			"has_more": page.HasMore,
		})
		o.logg.Info(logCtx, "catalog page synced")

		if !page.HasMore || result.Total >= opts.Ceiling {
			return result, nil
		}
		cursor = page.NextCursor
	}
}

// syncPage fetches one page under the configured per-page deadline. A timeout
// surfaces as a retryable failure to the caller, and progress already
// committed stays valid.
func (o *Orchestrator) syncPage(ctx context.Context, input SyncPageInput, timeout time.Duration) (*SyncPageResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return o.syncer.SyncPage(ctx, input)
}
