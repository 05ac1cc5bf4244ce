package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

// Repository holds the raw persistence operations for the product mirror.
// Transaction boundaries live in Store; every method here runs against
// whatever handle the repository was bound to.
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

// UpsertProductRow inserts or updates the product row by primary key,
// overwriting all columns. The remote platform is the source of truth, so
// local edits lose on conflict.
func (r *Repository) UpsertProductRow(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Omit("Variants").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(product).
		Error
}

// DeleteVariantsByProduct removes every variant row for the product.
func (r *Repository) DeleteVariantsByProduct(ctx context.Context, productID types.RemoteID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductVariant{}).
		Error
}

// InsertVariants creates the incoming variant set fresh.
func (r *Repository) InsertVariants(ctx context.Context, variants []models.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&variants).Error
}

// FindByID loads a product with its variants ordered by position.
func (r *Repository) FindByID(ctx context.Context, id types.RemoteID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProductRow removes the product row.
func (r *Repository) DeleteProductRow(ctx context.Context, id types.RemoteID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// UpdateProductColumns applies a partial column update to the product row.
func (r *Repository) UpdateProductColumns(ctx context.Context, id types.RemoteID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateFirstVariantColumns patches the lowest-position variant of the
// product. Single-variant products are the dominant case, so variant #0 is
// treated as canonical for barcode and price edits.
func (r *Repository) UpdateFirstVariantColumns(ctx context.Context, productID types.RemoteID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		First(&variant).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variant.ID).
		Updates(updates).
		Error
}

// ListProducts returns mirrored products with variants, newest first.
func (r *Repository) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// TruncateAll drops every row from both mirror tables.
func (r *Repository) TruncateAll(ctx context.Context) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("1 = 1").Delete(&models.ProductVariant{}).Error; err != nil {
		return err
	}
	return tx.Where("1 = 1").Delete(&models.Product{}).Error
}
