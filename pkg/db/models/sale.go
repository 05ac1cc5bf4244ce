package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
)

// Sale is the header row for a point-of-sale transaction. It is created once,
// atomically with its items, and afterwards mutated only by status
// transitions. The ID is local and never round-trips to the remote platform.
type Sale struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	Subtotal decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;not null"`
	AmountReceived decimal.Decimal     `gorm:"column:amount_received;type:numeric(12,2);not null"`
	Change         decimal.Decimal     `gorm:"column:change;type:numeric(12,2);not null"`

	CustomerName  *string `gorm:"column:customer_name"`
	CustomerPhone *string `gorm:"column:customer_phone"`

	Status     enums.SaleStatus `gorm:"column:status;not null;default:'completed'"`
	Commission decimal.Decimal  `gorm:"column:commission;type:numeric(12,2);not null"`

	EmployeeID *string `gorm:"column:employee_id"`
	OperatorID string  `gorm:"column:operator_id;not null"`

	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Sale) TableName() string { return "sales" }
