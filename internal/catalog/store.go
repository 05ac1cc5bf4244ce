package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store persists the local product mirror. Every write runs in a short-lived
// transaction; a constraint violation aborts only the enclosing product, and
// the synchronizer counts it as failed and moves on.
type Store struct {
	repo *Repository
	tx   txRunner
}

// NewStore wires a catalog store around the repository and an explicit
// transaction runner handle.
func NewStore(repo *Repository, tx txRunner) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Store{repo: repo, tx: tx}, nil
}

// UpsertProduct writes one product and replaces its variant set wholesale in
// a single transaction. Variants are never diffed: existing rows are deleted
// and the incoming set inserted fresh, because the remote platform owns
// variant existence. A sale racing this replace on the same product can have
// its stock decrement overwritten; remote data wins that race.
func (s *Store) UpsertProduct(ctx context.Context, product *models.Product, variants []models.ProductVariant) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	if product.ID.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpsertProductRow(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
				fmt.Sprintf("upsert product %s", product.ID))
		}
		if err := repo.DeleteVariantsByProduct(ctx, product.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
				fmt.Sprintf("clear variants for product %s", product.ID))
		}
		if err := repo.InsertVariants(ctx, variants); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
				fmt.Sprintf("insert variants for product %s", product.ID))
		}
		return nil
	})
}

// GetByID returns the product with its variants, or a not-found error.
func (s *Store) GetByID(ctx context.Context, id types.RemoteID) (*models.Product, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// DeleteByID removes the variants then the product in one transaction.
func (s *Store) DeleteByID(ctx context.Context, id types.RemoteID) error {
	if id.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteVariantsByProduct(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete variants")
		}
		if err := repo.DeleteProductRow(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		return nil
	})
}

// UpdateFields applies a partial local edit without a full variant resync.
// Barcode and price edits also patch the first variant row, which the system
// treats as canonical for single-variant products.
func (s *Store) UpdateFields(ctx context.Context, id types.RemoteID, input UpdateProductInput) (*models.Product, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	productUpdates := map[string]any{}
	variantUpdates := map[string]any{}

	if input.Title != nil {
		productUpdates["title"] = *input.Title
	}
	if input.Description != nil {
		productUpdates["description"] = *input.Description
	}
	if input.Vendor != nil {
		productUpdates["vendor"] = *input.Vendor
	}
	if input.ProductType != nil {
		productUpdates["product_type"] = *input.ProductType
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid product status %q", *input.Status))
		}
		productUpdates["status"] = *input.Status
	}
	if input.SalePrice != nil {
		productUpdates["sale_price"] = *input.SalePrice
		variantUpdates["price"] = *input.SalePrice
	}
	if input.OriginalPrice != nil {
		variantUpdates["compare_at_price"] = *input.OriginalPrice
	}
	if input.CostPrice != nil {
		productUpdates["cost_price"] = *input.CostPrice
	}
	if input.Barcode != nil {
		variantUpdates["barcode"] = *input.Barcode
	}
	if input.Quantity != nil {
		productUpdates["quantity"] = *input.Quantity
	}
	if input.CategoryID != nil {
		productUpdates["category_id"] = *input.CategoryID
	}

	if len(productUpdates) == 0 && len(variantUpdates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if len(productUpdates) > 0 {
			if err := repo.UpdateProductColumns(ctx, id, productUpdates); err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
			}
		}
		if len(variantUpdates) > 0 {
			if err := repo.UpdateFirstVariantColumns(ctx, id, variantUpdates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update first variant")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// List returns mirrored products newest first with a total row count.
func (s *Store) List(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	rows, total, err := s.repo.ListProducts(ctx, limit, offset)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, total, nil
}

// ClearAll truncates both mirror tables. Explicit and irreversible; only the
// full-reset tooling calls this.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).TruncateAll(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear catalog")
		}
		return nil
	})
}
