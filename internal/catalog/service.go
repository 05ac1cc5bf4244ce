package catalog

import (
	"context"
	"fmt"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/shopify"
)

// remoteCatalog is the slice of the remote client the synchronizer consumes.
type remoteCatalog interface {
	ListProductsPage(ctx context.Context, params shopify.PageParams) (*shopify.ProductPage, error)
}

// productWriter is the slice of the store the synchronizer consumes.
type productWriter interface {
	UpsertProduct(ctx context.Context, product *models.Product, variants []models.ProductVariant) error
}

// Synchronizer drives remote catalog pages into the local mirror. One bad
// product never stops a batch: each upsert failure is counted and the loop
// continues with the next record.
type Synchronizer struct {
	remote remoteCatalog
	store  productWriter
	logg   *logger.Logger
}

// NewSynchronizer wires a synchronizer with its remote source and local sink.
func NewSynchronizer(remote remoteCatalog, store productWriter, logg *logger.Logger) (*Synchronizer, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote catalog client required")
	}
	if store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Synchronizer{remote: remote, store: store, logg: logg}, nil
}

// SyncPage imports exactly one remote page. This is the mode unattended full
// passes should use: the returned cursor lets an external scheduler
// checkpoint between calls and never re-fetch a page.
func (s *Synchronizer) SyncPage(ctx context.Context, input SyncPageInput) (*SyncPageResult, error) {
	page, err := s.remote.ListProductsPage(ctx, shopify.PageParams{
		Cursor: input.Cursor,
		Limit:  input.Limit,
		Status: input.Status,
		Order:  input.Order,
	})
	if err != nil {
		return nil, err
	}

	imported, failed := s.importProducts(ctx, page.Products, input.Progress)

	return &SyncPageResult{
		Imported:   imported,
		Failed:     failed,
		Total:      len(page.Products),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}, nil
}

// SyncBatch imports a bounded slice of the catalog. It always fetches from
// the first page and skips Offset already-seen records client-side, which
// re-fetches skipped pages but stays safe against cursor expiry. Meant for
// small manual batches.
func (s *Synchronizer) SyncBatch(ctx context.Context, input SyncBatchInput) (*SyncBatchResult, error) {
	if input.MaxProducts <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max products must be positive")
	}
	if input.Offset < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offset must not be negative")
	}

	result := &SyncBatchResult{NextOffset: input.Offset}
	seen := 0
	cursor := shopify.Cursor("")

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.remote.ListProductsPage(ctx, shopify.PageParams{Cursor: cursor})
		if err != nil {
			return nil, err
		}

		for _, remote := range page.Products {
			if seen < input.Offset {
				seen++
				continue
			}
			if result.Total >= input.MaxProducts {
				result.HasMore = true
				result.NextOffset = input.Offset + result.Total
				return result, nil
			}
			seen++
			result.Total++
			if err := s.importOne(ctx, remote); err != nil {
				result.Failed++
				continue
			}
			result.Imported++
			if input.Progress != nil {
				input.Progress(result.Imported)
			}
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	result.HasMore = false
	result.NextOffset = input.Offset + result.Total
	return result, nil
}

// SyncAll runs a single full-catalog pass up to ceiling records, upserting
// as it goes. Cancellation is cooperative between pages: progress already
// committed stays valid and resumable, nothing is rolled back.
func (s *Synchronizer) SyncAll(ctx context.Context, ceiling int, progress ProgressFunc) (*FullSyncResult, error) {
	if ceiling <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ceiling must be positive")
	}

	result := &FullSyncResult{}
	cursor := shopify.Cursor("")

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := s.remote.ListProductsPage(ctx, shopify.PageParams{
			Cursor: cursor,
			Limit:  shopify.MaxPageSize,
		})
		if err != nil {
			return result, err
		}

		remaining := ceiling - result.Total
		products := page.Products
		if len(products) > remaining {
			products = products[:remaining]
		}

		pageProgress := ProgressFunc(nil)
		if progress != nil {
			base := result.Imported
			pageProgress = func(n int) { progress(base + n) }
		}

		imported, failed := s.importProducts(ctx, products, pageProgress)
		result.Imported += imported
		result.Failed += failed
		result.Total += len(products)

		if !page.HasMore || result.Total >= ceiling {
			break
		}
		cursor = page.NextCursor
	}

	return result, nil
}

func (s *Synchronizer) importProducts(ctx context.Context, products []shopify.Product, progress ProgressFunc) (imported, failed int) {
	for _, remote := range products {
		if err := s.importOne(ctx, remote); err != nil {
			failed++
			continue
		}
		imported++
		if progress != nil {
			progress(imported)
		}
	}
	return imported, failed
}

func (s *Synchronizer) importOne(ctx context.Context, remote shopify.Product) error {
	product, variants := mapRemoteProduct(remote)
	if err := s.store.UpsertProduct(ctx, product, variants); err != nil {
		logCtx := s.logg.WithProductID(ctx, product.ID.String())
		s.logg.Error(logCtx, "product import failed", err)
		return err
	}
	return nil
}
