package sales

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/outbox"
	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records register transactions. A commit is all-or-nothing: header,
// items, stock decrements, and the queued propagation events share one
// transaction, and any failure rolls the whole sale back.
type Service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService wires the sales ledger with its persistence dependencies.
func NewService(repo *Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, tx: tx, outbox: publisher, logg: logg}, nil
}

// CommitSale persists one register transaction. Line snapshots, commission,
// stock decrements, and one queued stock event per line all commit together.
// Stock is not re-validated here; the register checks availability before
// calling commit, and a racing oversell persists as negative stock for
// manual reconciliation.
func (s *Service) CommitSale(ctx context.Context, input CommitSaleInput, operatorID string) (*models.Sale, error) {
	if operatorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale requires at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	for i, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if line.ProductID == "" || line.VariantID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %d: product and variant are required", i))
		}
		if line.Price.IsNegative() || line.Discount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %d: price and discount must not be negative", i))
		}
	}
	if input.Discount.IsNegative() || input.AmountReceived.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}

	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		subtotal := decimal.Zero
		lineDiscounts := decimal.Zero
		commission := decimal.Zero
		items := make([]models.SaleItem, 0, len(input.Items))
		adjustments := make([]outbox.StockAdjustment, 0, len(input.Items))

		for _, line := range input.Items {
			variant, err := repo.FindVariant(ctx, types.RemoteID(line.VariantID))
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound,
						fmt.Sprintf("variant %s not found", line.VariantID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
			}
			if variant.ProductID.String() != line.ProductID {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("variant %s does not belong to product %s", line.VariantID, line.ProductID))
			}
			product, err := repo.FindProduct(ctx, variant.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound,
						fmt.Sprintf("product %s not found", line.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}

			price := line.Price
			if price.IsZero() {
				price = variant.Price
			}
			original := variant.Price
			if variant.CompareAtPrice != nil && !variant.CompareAtPrice.IsZero() {
				original = *variant.CompareAtPrice
			}

			lineCommissionAmount := lineCommission(price, original, line.Quantity)
			lineTotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))

			item := models.SaleItem{
				ProductID:     product.ID.String(),
				VariantID:     variant.ID.String(),
				Title:         product.Title,
				SKU:           variant.SKU,
				ImageURL:      product.ImageURL,
				Price:         price,
				OriginalPrice: original,
				Quantity:      line.Quantity,
				Discount:      line.Discount,
				Commission:    lineCommissionAmount,
			}
			items = append(items, item)

			subtotal = subtotal.Add(lineTotal)
			lineDiscounts = lineDiscounts.Add(line.Discount)
			commission = commission.Add(lineCommissionAmount)

			adjustments = append(adjustments, outbox.StockAdjustment{
				ProductID:       product.ID.String(),
				VariantID:       variant.ID.String(),
				InventoryItemID: variant.InventoryItemID.String(),
				Delta:           -line.Quantity,
			})
		}

		discount := input.Discount.Add(lineDiscounts)
		total := subtotal.Sub(discount)
		if total.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds subtotal")
		}

		change := decimal.Zero
		if input.PaymentMethod == enums.PaymentMethodCash {
			change = input.AmountReceived.Sub(total)
			if change.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "amount received is less than total")
			}
		}

		sale = &models.Sale{
			Subtotal:       subtotal,
			Discount:       discount,
			Total:          total,
			PaymentMethod:  input.PaymentMethod,
			AmountReceived: input.AmountReceived,
			Change:         change,
			CustomerName:   input.CustomerName,
			CustomerPhone:  input.CustomerPhone,
			Status:         enums.SaleStatusCompleted,
			Commission:     commission,
			EmployeeID:     input.EmployeeID,
			OperatorID:     operatorID,
			Items:          items,
		}
		if err := repo.CreateSale(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sale")
		}

		for i, adjustment := range adjustments {
			adjustment.SaleID = sale.ID
			if err := repo.AdjustStock(ctx,
				types.RemoteID(adjustment.ProductID),
				types.RemoteID(adjustment.VariantID),
				adjustment.Delta,
			); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventStockDecrement,
				AggregateType: enums.AggregateSale,
				AggregateID:   fmt.Sprintf("%d", sale.ID),
				Version:       1,
				Actor:         buildActor(operatorID, input.EmployeeID),
				Data:          adjustment,
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
					fmt.Sprintf("queue stock event for item %d", i))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithSaleID(ctx, sale.ID)
	logCtx = s.logg.WithOperatorID(logCtx, operatorID)
	s.logg.Info(logCtx, "sale committed")
	return sale, nil
}

// GetSale loads one sale with its items.
func (s *Service) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	sale, err := s.repo.FindSaleWithItems(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

// ListSales returns a filtered page plus aggregates computed over the same
// predicate. The two queries must stay consistent under identical filters.
func (s *Service) ListSales(ctx context.Context, input ListSalesInput) (*ListSalesResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid sale status %q", *input.Status))
	}

	rows, total, err := s.repo.ListSales(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	stats, err := s.repo.AggregateSales(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate sales")
	}

	return &ListSalesResult{Sales: rows, Total: total, Stats: *stats}, nil
}

// RefundSale transitions a completed sale to refunded and restocks its items
// locally, queueing matching restock events for the remote platform.
func (s *Service) RefundSale(ctx context.Context, id int64, operatorID string) (*models.Sale, error) {
	return s.reverseSale(ctx, id, operatorID, enums.SaleStatusRefunded)
}

// VoidSale cancels a completed sale as if it never happened. Stock returns
// the same way a refund does; the distinct status keeps day-end reporting
// honest.
func (s *Service) VoidSale(ctx context.Context, id int64, operatorID string) (*models.Sale, error) {
	return s.reverseSale(ctx, id, operatorID, enums.SaleStatusVoided)
}

func (s *Service) reverseSale(ctx context.Context, id int64, operatorID string, target enums.SaleStatus) (*models.Sale, error) {
	if operatorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}

	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindSaleWithItems(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
		}
		if loaded.Status != enums.SaleStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("sale is already %s", loaded.Status))
		}

		if err := repo.UpdateSaleStatus(ctx, id, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale status")
		}
		loaded.Status = target

		for _, item := range loaded.Items {
			if err := repo.AdjustStock(ctx,
				types.RemoteID(item.ProductID),
				types.RemoteID(item.VariantID),
				item.Quantity,
			); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock item")
			}

			// The catalog row may have been deleted since the sale; the
			// propagator skips adjustments without an inventory item handle.
			inventoryItemID := ""
			if variant, err := repo.FindVariant(ctx, types.RemoteID(item.VariantID)); err == nil {
				inventoryItemID = variant.InventoryItemID.String()
			}

			event := outbox.DomainEvent{
				EventType:     enums.EventStockRestock,
				AggregateType: enums.AggregateSale,
				AggregateID:   fmt.Sprintf("%d", loaded.ID),
				Version:       1,
				Actor:         buildActor(operatorID, loaded.EmployeeID),
				Data: outbox.StockAdjustment{
					SaleID:          loaded.ID,
					ProductID:       item.ProductID,
					VariantID:       item.VariantID,
					InventoryItemID: inventoryItemID,
					Delta:           item.Quantity,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue restock event")
			}
		}

		sale = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithSaleID(ctx, sale.ID)
	s.logg.Info(logCtx, fmt.Sprintf("sale %s", sale.Status))
	return sale, nil
}

func buildActor(operatorID string, employeeID *string) *outbox.ActorRef {
	actor := &outbox.ActorRef{OperatorID: operatorID}
	if employeeID != nil {
		actor.EmployeeID = employeeID
	}
	return actor
}
