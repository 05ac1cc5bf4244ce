package sales

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

// Repository holds the raw persistence operations for the sales ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateSale inserts the sale header together with its items.
func (r *Repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// FindSaleWithItems loads a sale and its line items.
func (r *Repository) FindSaleWithItems(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&sale, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindVariant loads one variant row by remote ID.
func (r *Repository) FindVariant(ctx context.Context, id types.RemoteID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// FindProduct loads one product row by remote ID, without variants.
func (r *Repository) FindProduct(ctx context.Context, id types.RemoteID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustStock shifts the variant and parent product counters by delta. There
// is no non-negative guard here: the caller validates availability before the
// commit transaction, and a racing oversell is left for manual
// reconciliation.
func (r *Repository) AdjustStock(ctx context.Context, productID, variantID types.RemoteID, delta int) error {
	tx := r.db.WithContext(ctx)
	err := tx.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("inventory_quantity", gorm.Expr("inventory_quantity + ?", delta)).
		Error
	if err != nil {
		return err
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta)).
		Error
}

// UpdateSaleStatus transitions a sale's lifecycle state.
func (r *Repository) UpdateSaleStatus(ctx context.Context, id int64, status enums.SaleStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListSales returns a filtered, paginated page of sales plus the total row
// count under the same predicate.
func (r *Repository) ListSales(ctx context.Context, input ListSalesInput) ([]models.Sale, int64, error) {
	base := r.filteredQuery(ctx, input)

	var total int64
	if err := base.Session(&gorm.Session{}).Model(&models.Sale{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Session(&gorm.Session{}).
		Model(&models.Sale{}).
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC")
	if input.Limit > 0 {
		query = query.Limit(input.Limit)
	}
	if input.Offset > 0 {
		query = query.Offset(input.Offset)
	}

	var rows []models.Sale
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AggregateSales computes count, revenue, discount, and commission over the
// same filter predicate ListSales uses, ignoring pagination bounds.
func (r *Repository) AggregateSales(ctx context.Context, input ListSalesInput) (*SaleStats, error) {
	type statsRow struct {
		Count      int64
		Revenue    *string
		Discount   *string
		Commission *string
	}

	var row statsRow
	err := r.filteredQuery(ctx, input).
		Model(&models.Sale{}).
		Select("COUNT(*) AS count, SUM(total) AS revenue, SUM(discount) AS discount, SUM(commission) AS commission").
		Scan(&row).
		Error
	if err != nil {
		return nil, err
	}

	stats := &SaleStats{Count: row.Count}
	stats.Revenue = sumOrZero(row.Revenue)
	stats.Discount = sumOrZero(row.Discount)
	stats.Commission = sumOrZero(row.Commission)
	return stats, nil
}

// sumOrZero parses a SUM() result that may be NULL when no rows match.
func sumOrZero(raw *string) decimal.Decimal {
	if raw == nil || *raw == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

func (r *Repository) filteredQuery(ctx context.Context, input ListSalesInput) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Sale{})
	if input.Status != nil {
		query = query.Where("status = ?", *input.Status)
	}
	if input.EmployeeID != nil {
		query = query.Where("employee_id = ?", *input.EmployeeID)
	}
	if input.From != nil {
		query = query.Where("created_at >= ?", *input.From)
	}
	if input.To != nil {
		query = query.Where("created_at < ?", *input.To)
	}
	return query
}
