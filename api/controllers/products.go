package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dmarsh-dev/lumapos-backend/api/responses"
	"github.com/dmarsh-dev/lumapos-backend/api/validators"
	"github.com/dmarsh-dev/lumapos-backend/internal/catalog"
	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

type productStore interface {
	GetByID(ctx context.Context, id types.RemoteID) (*models.Product, error)
	UpdateFields(ctx context.Context, id types.RemoteID, input catalog.UpdateProductInput) (*models.Product, error)
	DeleteByID(ctx context.Context, id types.RemoteID) error
	List(ctx context.Context, limit, offset int) ([]models.Product, int64, error)
	ClearAll(ctx context.Context) error
}

type productListResponse struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListProducts pages through the mirrored catalog.
func ListProducts(store productStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog store unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 250)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, total, err := store.List(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productListResponse{
			Products: products,
			Total:    total,
			Limit:    limit,
			Offset:   offset,
		})
	}
}

// GetProduct returns one mirrored product with its variants.
func GetProduct(store productStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog store unavailable"))
			return
		}

		id, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := store.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type updateProductRequest struct {
	Title         *string          `json:"title,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Vendor        *string          `json:"vendor,omitempty"`
	ProductType   *string          `json:"product_type,omitempty"`
	Status        *string          `json:"status,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	Barcode       *string          `json:"barcode,omitempty"`
	Quantity      *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
	CategoryID    *int64           `json:"category_id,omitempty"`
}

func (req updateProductRequest) toUpdateInput() (catalog.UpdateProductInput, error) {
	input := catalog.UpdateProductInput{
		Title:         req.Title,
		Description:   req.Description,
		Vendor:        req.Vendor,
		ProductType:   req.ProductType,
		SalePrice:     req.SalePrice,
		OriginalPrice: req.OriginalPrice,
		CostPrice:     req.CostPrice,
		Barcode:       req.Barcode,
		Quantity:      req.Quantity,
		CategoryID:    req.CategoryID,
	}
	if req.Status != nil {
		status, err := enums.ParseProductStatus(strings.TrimSpace(*req.Status))
		if err != nil {
			return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	return input, nil
}

// UpdateProduct applies local field edits to a mirrored product. Edits to
// synced fields last until the next catalog pass overwrites them.
func UpdateProduct(store productStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog store unavailable"))
			return
		}

		id, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := store.UpdateFields(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes one mirrored product and its variants.
func DeleteProduct(store productStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog store unavailable"))
			return
		}

		id, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.DeleteByID(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"deleted": id.String()})
	}
}

// ClearProducts wipes the entire local mirror ahead of a fresh full sync.
func ClearProducts(store productStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog store unavailable"))
			return
		}

		if err := store.ClearAll(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func productIDParam(r *http.Request) (types.RemoteID, error) {
	id := types.RemoteID(strings.TrimSpace(chi.URLParam(r, "productID")))
	if id.IsZero() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "missing product id")
	}
	return id, nil
}
