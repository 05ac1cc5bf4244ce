package controllers

import (
	"context"
	"net/http"

	"github.com/dmarsh-dev/lumapos-backend/api/responses"
	"github.com/dmarsh-dev/lumapos-backend/api/validators"
	"github.com/dmarsh-dev/lumapos-backend/internal/catalog"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/shopify"
)

type syncService interface {
	SyncPage(ctx context.Context, input catalog.SyncPageInput) (*catalog.SyncPageResult, error)
	SyncBatch(ctx context.Context, input catalog.SyncBatchInput) (*catalog.SyncBatchResult, error)
}

type fullSyncRunner interface {
	Run(ctx context.Context, opts catalog.RunOptions) (*catalog.FullSyncResult, error)
}

type syncPageRequest struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=250"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=active archived draft"`
	Order  string `json:"order,omitempty"`
}

// SyncPage imports exactly one remote page and returns the cursor bookkeeping
// so an external scheduler can checkpoint between calls.
func SyncPage(svc syncService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		var payload syncPageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SyncPage(r.Context(), catalog.SyncPageInput{
			Cursor: shopify.Cursor(payload.Cursor),
			Limit:  payload.Limit,
			Status: payload.Status,
			Order:  payload.Order,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type syncBatchRequest struct {
	MaxProducts int `json:"max_products" validate:"required,min=1"`
	Offset      int `json:"offset,omitempty" validate:"omitempty,min=0"`
}

// SyncBatch imports a bounded number of products starting at a record offset.
func SyncBatch(svc syncService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		var payload syncBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SyncBatch(r.Context(), catalog.SyncBatchInput{
			MaxProducts: payload.MaxProducts,
			Offset:      payload.Offset,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type syncFullRequest struct {
	PageSize int    `json:"page_size,omitempty" validate:"omitempty,min=1,max=250"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=active archived draft"`
	Ceiling  int    `json:"ceiling,omitempty" validate:"omitempty,min=1"`
}

// SyncFull walks the entire remote catalog synchronously. Long-running; the
// request context bounds the pass and partial progress survives cancellation.
func SyncFull(runner fullSyncRunner, defaults catalog.RunOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		opts := defaults
		if r.ContentLength > 0 {
			var payload syncFullRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if payload.PageSize > 0 {
				opts.PageSize = payload.PageSize
			}
			if payload.Status != "" {
				opts.Status = payload.Status
			}
			if payload.Ceiling > 0 {
				opts.Ceiling = payload.Ceiling
			}
		}

		result, err := runner.Run(r.Context(), opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
