package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItem is an immutable line item snapshot. Product and variant references
// are stored as remote ID strings so they stay valid even after the local
// catalog rows are deleted; title/sku/image are denormalized at time of sale
// so historical receipts survive catalog changes. Corrections happen via new
// compensating sales, never by editing these rows.
type SaleItem struct {
	ID     int64 `gorm:"column:id;primaryKey;autoIncrement"`
	SaleID int64 `gorm:"column:sale_id;not null;index"`

	ProductID string `gorm:"column:product_id;not null"`
	VariantID string `gorm:"column:variant_id;not null"`

	Title    string  `gorm:"column:title;not null"`
	SKU      string  `gorm:"column:sku"`
	ImageURL *string `gorm:"column:image_url"`

	// Price is the unit price at time of sale; OriginalPrice is the
	// compare-at price used by the commission tiering.
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice decimal.Decimal `gorm:"column:original_price;type:numeric(12,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	Discount      decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	Commission    decimal.Decimal `gorm:"column:commission;type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (SaleItem) TableName() string { return "sale_items" }
