package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmarsh-dev/lumapos-backend/api/middleware"
	"github.com/dmarsh-dev/lumapos-backend/api/responses"
	"github.com/dmarsh-dev/lumapos-backend/api/validators"
	"github.com/dmarsh-dev/lumapos-backend/internal/inventory"
	"github.com/dmarsh-dev/lumapos-backend/internal/sales"
	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
)

type saleService interface {
	CommitSale(ctx context.Context, input sales.CommitSaleInput, operatorID string) (*models.Sale, error)
	GetSale(ctx context.Context, id int64) (*models.Sale, error)
	ListSales(ctx context.Context, input sales.ListSalesInput) (*sales.ListSalesResult, error)
	RefundSale(ctx context.Context, id int64, operatorID string) (*models.Sale, error)
	VoidSale(ctx context.Context, id int64, operatorID string) (*models.Sale, error)
}

type salePropagator interface {
	PropagateSale(ctx context.Context, saleID int64) []inventory.ItemOutcome
}

type commitSaleResponse struct {
	Sale             *models.Sale            `json:"sale"`
	InventoryUpdates []inventory.ItemOutcome `json:"inventory_updates"`
}

// CommitSale records a register transaction and then pushes the resulting
// stock deltas upstream. The sale is durable before propagation starts, so a
// propagation failure never rolls back the sale.
func CommitSale(svc saleService, propagator salePropagator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		operatorID := middleware.OperatorIDFromContext(r.Context())
		if operatorID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator context missing"))
			return
		}

		var payload sales.CommitSaleInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.CommitSale(r.Context(), payload, operatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := commitSaleResponse{Sale: sale}
		if propagator != nil {
			resp.InventoryUpdates = propagator.PropagateSale(r.Context(), sale.ID)
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// GetSale returns one ledger entry with its line items.
func GetSale(svc saleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		id, err := saleIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.GetSale(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

// ListSales pages the ledger and aggregates stats over the same filters.
func ListSales(svc saleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		input, err := parseListSalesQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListSales(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// RefundSale reverses a completed sale and restocks its items.
func RefundSale(svc saleService, logg *logger.Logger) http.HandlerFunc {
	return reverseSaleHandler(svc, logg, func(ctx context.Context, id int64, operatorID string) (*models.Sale, error) {
		return svc.RefundSale(ctx, id, operatorID)
	})
}

// VoidSale cancels a completed sale and restocks its items.
func VoidSale(svc saleService, logg *logger.Logger) http.HandlerFunc {
	return reverseSaleHandler(svc, logg, func(ctx context.Context, id int64, operatorID string) (*models.Sale, error) {
		return svc.VoidSale(ctx, id, operatorID)
	})
}

func reverseSaleHandler(svc saleService, logg *logger.Logger, reverse func(context.Context, int64, string) (*models.Sale, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		operatorID := middleware.OperatorIDFromContext(r.Context())
		if operatorID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator context missing"))
			return
		}

		id, err := saleIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := reverse(r.Context(), id, operatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

func parseListSalesQuery(r *http.Request) (sales.ListSalesInput, error) {
	input := sales.ListSalesInput{}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseSaleStatus(raw)
		if err != nil {
			return sales.ListSalesInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		input.Status = &status
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("employee_id")); raw != "" {
		input.EmployeeID = &raw
	}

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return sales.ListSalesInput{}, err
	}
	input.From = from

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return sales.ListSalesInput{}, err
	}
	input.To = to

	limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
	if err != nil {
		return sales.ListSalesInput{}, err
	}
	input.Limit = limit

	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
	if err != nil {
		return sales.ListSalesInput{}, err
	}
	input.Offset = offset

	return input, nil
}

func saleIDParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "saleID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid sale id")
	}
	return id, nil
}
