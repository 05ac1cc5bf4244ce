package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

// Product is the local mirror of a remote catalog product. The remote
// platform's ID is used verbatim as the primary key, never regenerated.
type Product struct {
	ID          types.RemoteID      `gorm:"column:id;type:text;primaryKey"`
	Title       string              `gorm:"column:title;not null"`
	Description *string             `gorm:"column:description"`
	Vendor      string              `gorm:"column:vendor"`
	ProductType string              `gorm:"column:product_type"`
	Status      enums.ProductStatus `gorm:"column:status;not null;default:'active'"`
	Handle      string              `gorm:"column:handle;uniqueIndex"`
	ImageURL    *string             `gorm:"column:image_url"`
	Tags        pq.StringArray      `gorm:"column:tags;type:text[]"`

	// SalePrice is derived from the first variant at sync time. CostPrice is
	// never supplied by the remote platform; it defaults to zero and is only
	// set by local edits.
	SalePrice decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null"`
	CostPrice decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null"`

	// Quantity is the sum of variant inventory quantities, recomputed on
	// every upsert and adjusted by every sale commit.
	Quantity   int    `gorm:"column:quantity;not null;default:0"`
	CategoryID *int64 `gorm:"column:category_id"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
