package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/outbox"
	"github.com/dmarsh-dev/lumapos-backend/pkg/shopify"
	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

// remoteInventory is the slice of the remote client the propagator consumes.
type remoteInventory interface {
	AdjustInventory(ctx context.Context, locationID, inventoryItemID types.RemoteID, delta int) error
	ListLocations(ctx context.Context) ([]shopify.Location, error)
	DefaultLocationID() types.RemoteID
}

// eventQueue is the slice of the outbox the propagator consumes.
type eventQueue interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	FetchUnpublishedForAggregate(aggregateID string) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
	MarkSkipped(id uuid.UUID, reason string) error
}

// ItemOutcome classifies one queued adjustment's propagation attempt.
// Outcomes are reported in the order the adjustments were recorded.
type ItemOutcome struct {
	ProductID string                   `json:"product_id"`
	VariantID string                   `json:"variant_id"`
	Delta     int                      `json:"delta"`
	Outcome   enums.PropagationOutcome `json:"outcome"`
	Error     string                   `json:"error,omitempty"`
}

// Propagator pushes queued stock adjustments to the remote platform after a
// sale has committed. Propagation is informative-only: its failures are data
// shown to the operator, never control flow. Remote calls run sequentially
// so rate-limit behavior stays predictable and error attribution per item
// stays unambiguous.
type Propagator struct {
	remote      remoteInventory
	queue       eventQueue
	logg        *logger.Logger
	maxAttempts int

	locationID types.RemoteID
}

// NewPropagator wires a propagator. maxAttempts bounds background retries; a
// row that keeps failing past the bound is parked for reconciliation.
func NewPropagator(remote remoteInventory, queue eventQueue, logg *logger.Logger, maxAttempts int) (*Propagator, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote inventory client required")
	}
	if queue == nil {
		return nil, fmt.Errorf("event queue required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Propagator{
		remote:      remote,
		queue:       queue,
		logg:        logg,
		maxAttempts: maxAttempts,
	}, nil
}

// PropagateSale pushes every queued adjustment for one committed sale and
// returns the per-item outcomes. Errors never escalate to the caller as a
// sale failure; the sale is already durable.
func (p *Propagator) PropagateSale(ctx context.Context, saleID int64) []ItemOutcome {
	rows, err := p.queue.FetchUnpublishedForAggregate(fmt.Sprintf("%d", saleID))
	if err != nil {
		logCtx := p.logg.WithSaleID(ctx, saleID)
		p.logg.Error(logCtx, "fetch queued adjustments", err)
		return nil
	}
	return p.processRows(ctx, rows)
}

// Drain pushes up to limit queued adjustments regardless of sale. The
// propagation worker calls this to deliver rows left behind by a crash
// between commit and in-process propagation.
func (p *Propagator) Drain(ctx context.Context, limit int) ([]ItemOutcome, error) {
	rows, err := p.queue.FetchUnpublished(limit)
	if err != nil {
		return nil, err
	}
	return p.processRows(ctx, rows), nil
}

func (p *Propagator) processRows(ctx context.Context, rows []models.OutboxEvent) []ItemOutcome {
	outcomes := make([]ItemOutcome, 0, len(rows))
	for _, row := range rows {
		outcomes = append(outcomes, p.processOne(ctx, row))
	}
	return outcomes
}

func (p *Propagator) processOne(ctx context.Context, row models.OutboxEvent) ItemOutcome {
	adjustment, err := outbox.DecodeStockAdjustment(row.Payload)
	if err != nil {
		reason := fmt.Sprintf("undecodable payload: %v", err)
		if markErr := p.queue.MarkSkipped(row.ID, reason); markErr != nil {
			p.logg.Error(ctx, "mark adjustment skipped", markErr)
		}
		return ItemOutcome{Outcome: enums.PropagationSkipped, Error: reason}
	}

	outcome := ItemOutcome{
		ProductID: adjustment.ProductID,
		VariantID: adjustment.VariantID,
		Delta:     adjustment.Delta,
	}

	if adjustment.InventoryItemID == "" {
		outcome.Outcome = enums.PropagationSkipped
		if err := p.queue.MarkSkipped(row.ID, "variant is not remote inventory tracked"); err != nil {
			p.logg.Error(ctx, "mark adjustment skipped", err)
		}
		return outcome
	}

	if row.AttemptCount >= p.maxAttempts {
		outcome.Outcome = enums.PropagationSkipped
		outcome.Error = "retry budget exhausted"
		if err := p.queue.MarkSkipped(row.ID, outcome.Error); err != nil {
			p.logg.Error(ctx, "park exhausted adjustment", err)
		}
		return outcome
	}

	location, err := p.resolveLocation(ctx)
	if err != nil {
		outcome.Outcome = enums.PropagationError
		outcome.Error = err.Error()
		if markErr := p.queue.MarkFailed(row.ID, err); markErr != nil {
			p.logg.Error(ctx, "mark adjustment failed", markErr)
		}
		return outcome
	}

	err = p.remote.AdjustInventory(ctx, location, types.RemoteID(adjustment.InventoryItemID), adjustment.Delta)
	if err != nil {
		outcome.Outcome = enums.PropagationError
		outcome.Error = err.Error()
		logCtx := p.logg.WithSaleID(ctx, adjustment.SaleID)
		p.logg.Error(logCtx, "stock adjustment push failed", err)
		if markErr := p.queue.MarkFailed(row.ID, err); markErr != nil {
			p.logg.Error(ctx, "mark adjustment failed", markErr)
		}
		return outcome
	}

	outcome.Outcome = enums.PropagationSuccess
	if err := p.queue.MarkPublished(row.ID); err != nil {
		p.logg.Error(ctx, "mark adjustment published", err)
	}
	return outcome
}

// resolveLocation prefers the configured location, then the remote account's
// first active location. The resolved value is cached for the propagator's
// lifetime.
func (p *Propagator) resolveLocation(ctx context.Context) (types.RemoteID, error) {
	if !p.locationID.IsZero() {
		return p.locationID, nil
	}
	if configured := p.remote.DefaultLocationID(); !configured.IsZero() {
		p.locationID = configured
		return configured, nil
	}

	locations, err := p.remote.ListLocations(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve stock location: %w", err)
	}
	for _, location := range locations {
		if location.Active {
			p.locationID = location.ID
			return location.ID, nil
		}
	}
	return "", fmt.Errorf("remote account has no active stock location")
}
