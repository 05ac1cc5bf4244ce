package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	OperatorID string  `json:"operatorId"`
	EmployeeID *string `json:"employeeId,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// StockAdjustment is the event data for a single line item's stock change.
// Delta is negative for sales and positive for refund restocks.
type StockAdjustment struct {
	SaleID          int64  `json:"saleId"`
	ProductID       string `json:"productId"`
	VariantID       string `json:"variantId"`
	InventoryItemID string `json:"inventoryItemId"`
	Delta           int    `json:"delta"`
}
