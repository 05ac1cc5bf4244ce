package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

// ProductVariant mirrors a remote variant row. Variants are deleted and
// re-inserted wholesale on every product sync; they are never diffed.
type ProductVariant struct {
	ID        types.RemoteID `gorm:"column:id;type:text;primaryKey"`
	ProductID types.RemoteID `gorm:"column:product_id;type:text;not null;index"`

	Title          string           `gorm:"column:title"`
	Price          decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	CompareAtPrice *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(12,2)"`
	SKU            string           `gorm:"column:sku"`
	Barcode        *string          `gorm:"column:barcode"`

	// InventoryQuantity may go negative transiently during a racing sale, but
	// a sync always overwrites it with the remote truth.
	InventoryQuantity int `gorm:"column:inventory_quantity;not null;default:0"`

	// InventoryItemID is the remote handle used for inventory adjustments;
	// InventoryManagement reports whether the remote platform tracks stock
	// for this variant at all.
	InventoryItemID     types.RemoteID `gorm:"column:inventory_item_id;type:text"`
	InventoryManagement *string        `gorm:"column:inventory_management"`

	Position   int     `gorm:"column:position;not null;default:1"`
	Weight     float64 `gorm:"column:weight"`
	WeightUnit string  `gorm:"column:weight_unit"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductVariant) TableName() string { return "product_variants" }

// RemoteTracked reports whether stock changes should be propagated upstream.
func (v ProductVariant) RemoteTracked() bool {
	return v.InventoryManagement != nil && *v.InventoryManagement != "" && !v.InventoryItemID.IsZero()
}
