package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
)

// SaleLineInput is one cart line as the register submits it. Price is the
// unit price actually charged, which may differ from the catalog price when
// the operator applies a per-line override.
type SaleLineInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	VariantID string          `json:"variant_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
}

// CommitSaleInput is the full payload for one register transaction.
type CommitSaleInput struct {
	Items          []SaleLineInput     `json:"items" validate:"required,min=1,dive"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method" validate:"required"`
	AmountReceived decimal.Decimal     `json:"amount_received"`
	Discount       decimal.Decimal     `json:"discount"`
	CustomerName   *string             `json:"customer_name,omitempty"`
	CustomerPhone  *string             `json:"customer_phone,omitempty"`
	EmployeeID     *string             `json:"employee_id,omitempty"`
}

// ListSalesInput filters the sales ledger. Stats are aggregated over the
// same predicate, excluding only the pagination bounds.
type ListSalesInput struct {
	Status     *enums.SaleStatus
	EmployeeID *string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// SaleStats aggregates the filtered ledger slice.
type SaleStats struct {
	Count      int64           `json:"count"`
	Revenue    decimal.Decimal `json:"revenue"`
	Discount   decimal.Decimal `json:"discount"`
	Commission decimal.Decimal `json:"commission"`
}

// ListSalesResult pairs the page rows with the aggregate over the same
// filters.
type ListSalesResult struct {
	Sales []models.Sale `json:"sales"`
	Total int64         `json:"total"`
	Stats SaleStats     `json:"stats"`
}
