package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	"github.com/dmarsh-dev/lumapos-backend/pkg/shopify"
)

// SyncPageInput drives one cursor-mode page. Cursor and Order are mutually
// exclusive past the first page; the remote client enforces that.
type SyncPageInput struct {
	Cursor shopify.Cursor
	Limit  int
	Status string
	Order  string

	// Progress receives the running imported count after every record.
	Progress ProgressFunc
}

// SyncPageResult reports the outcome of one page so an external scheduler can
// checkpoint between calls.
type SyncPageResult struct {
	Imported   int            `json:"imported"`
	Failed     int            `json:"failed"`
	Total      int            `json:"total"`
	NextCursor shopify.Cursor `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// SyncBatchInput drives a bounded offset pass: re-fetch from the start, skip
// Offset already-seen records client-side, import up to MaxProducts more.
type SyncBatchInput struct {
	MaxProducts int
	Offset      int

	// Progress receives the running imported count after every record.
	Progress ProgressFunc
}

// SyncBatchResult reports a bounded pass outcome.
type SyncBatchResult struct {
	Imported   int  `json:"imported"`
	Failed     int  `json:"failed"`
	Total      int  `json:"total"`
	NextOffset int  `json:"next_offset"`
	HasMore    bool `json:"has_more"`
}

// FullSyncResult aggregates an entire catalog pass.
type FullSyncResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
	Total    int `json:"total"`
}

// ProgressFunc is invoked once per successfully imported record, not batched,
// so callers can surface live counters.
type ProgressFunc func(imported int)

// UpdateProductInput holds optional local edits for a mirrored product.
// Remote syncs overwrite these fields on the next pass except CostPrice and
// CategoryID are only meaningful between syncs.
type UpdateProductInput struct {
	Title         *string
	Description   *string
	Vendor        *string
	ProductType   *string
	Status        *enums.ProductStatus
	SalePrice     *decimal.Decimal
	OriginalPrice *decimal.Decimal
	CostPrice     *decimal.Decimal
	Barcode       *string
	Quantity      *int
	CategoryID    *int64
}

// mapRemoteProduct converts one remote payload into the local mirror rows.
// The aggregate quantity is recomputed from the incoming variant set rather
// than trusted from the remote product payload.
func mapRemoteProduct(remote shopify.Product) (*models.Product, []models.ProductVariant) {
	status := enums.ProductStatusActive
	if parsed, err := enums.ParseProductStatus(remote.Status); err == nil {
		status = parsed
	}

	product := &models.Product{
		ID:          remote.ID,
		Title:       remote.Title,
		Vendor:      remote.Vendor,
		ProductType: remote.ProductType,
		Status:      status,
		Handle:      remote.Handle,
		Tags:        remote.Tags,
		SalePrice:   decimal.Zero,
		CostPrice:   decimal.Zero,
	}
	if remote.Description != "" {
		desc := remote.Description
		product.Description = &desc
	}
	if remote.ImageURL != "" {
		img := remote.ImageURL
		product.ImageURL = &img
	}

	variants := make([]models.ProductVariant, 0, len(remote.Variants))
	quantity := 0
	for _, rv := range remote.Variants {
		variant := models.ProductVariant{
			ID:                rv.ID,
			ProductID:         remote.ID,
			Title:             rv.Title,
			Price:             rv.Price,
			CompareAtPrice:    rv.CompareAtPrice,
			SKU:               rv.SKU,
			InventoryQuantity: rv.InventoryQuantity,
			InventoryItemID:   rv.InventoryItemID,
			Position:          rv.Position,
			Weight:            rv.Weight,
			WeightUnit:        rv.WeightUnit,
		}
		if rv.Barcode != "" {
			barcode := rv.Barcode
			variant.Barcode = &barcode
		}
		if rv.InventoryManagement != "" {
			mgmt := rv.InventoryManagement
			variant.InventoryManagement = &mgmt
		}
		quantity += rv.InventoryQuantity
		variants = append(variants, variant)
	}

	if len(variants) > 0 {
		product.SalePrice = variants[0].Price
	}
	product.Quantity = quantity
	return product, variants
}
