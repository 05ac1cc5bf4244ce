package sales

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db"
	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/outbox"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	publisher := outbox.NewService(outbox.NewRepository(conn), nil)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), publisher,
		logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return svc, conn
}

func TestCommitSaleTotalsInvariant(t *testing.T) {
	svc, conn := newTestService(t)
	mustSeedProduct(t, conn, "p1", 10.00, 0, 20)
	mustSeedProduct(t, conn, "p2", 25.50, 30.00, 10)

	sale, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Items: []SaleLineInput{
			{ProductID: "p1", VariantID: "p1-v1", Quantity: 2, Price: decimal.NewFromFloat(10.00)},
			{ProductID: "p2", VariantID: "p2-v1", Quantity: 1, Price: decimal.NewFromFloat(25.50), Discount: decimal.NewFromFloat(2.00)},
		},
		PaymentMethod:  enums.PaymentMethodCash,
		AmountReceived: decimal.NewFromFloat(50.00),
		Discount:       decimal.NewFromFloat(1.50),
	}, "op-1")
	require.NoError(t, err)

	// subtotal = 2*10.00 + 25.50
	assert.Equal(t, "45.50", sale.Subtotal.StringFixed(2))
	// discount = header 1.50 + line 2.00
	assert.Equal(t, "3.50", sale.Discount.StringFixed(2))
	assert.True(t, sale.Total.Equal(sale.Subtotal.Sub(sale.Discount)))
	assert.Equal(t, "8.00", sale.Change.StringFixed(2))

	itemSum := decimal.Zero
	commissionSum := decimal.Zero
	for _, item := range sale.Items {
		itemSum = itemSum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		commissionSum = commissionSum.Add(item.Commission)
	}
	assert.True(t, itemSum.Equal(sale.Subtotal))
	assert.True(t, commissionSum.Equal(sale.Commission))
}

func TestCommitSaleDecrementsStock(t *testing.T) {
	svc, conn := newTestService(t)
	mustSeedProduct(t, conn, "s1", 15.00, 0, 5)

	sale, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Items:         []SaleLineInput{{ProductID: "s1", VariantID: "s1-v1", Quantity: 2}},
		PaymentMethod: enums.PaymentMethodCard,
	}, "op-1")
	require.NoError(t, err)
	require.NotZero(t, sale.ID)

	var variant models.ProductVariant
	require.NoError(t, conn.First(&variant, "id = ?", "s1-v1").Error)
	assert.Equal(t, 3, variant.InventoryQuantity)

	var product models.Product
	require.NoError(t, conn.First(&product, "id = ?", "s1").Error)
	assert.Equal(t, 3, product.Quantity)

	// Product quantity still equals the sum of its variant quantities.
	assert.Equal(t, variant.InventoryQuantity, product.Quantity)

	// One queued stock event per line, committed with the sale.
	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventStockDecrement, events[0].EventType)

	decoded, err := outbox.DecodeStockAdjustment(events[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, decoded.SaleID)
	assert.Equal(t, "inv-s1", decoded.InventoryItemID)
	assert.Equal(t, -2, decoded.Delta)
}

func TestCommitSaleSnapshotsLineItems(t *testing.T) {
	svc, conn := newTestService(t)
	product, variant := mustSeedProduct(t, conn, "snap", 12.00, 14.00, 8)

	sale, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Items:         []SaleLineInput{{ProductID: "snap", VariantID: "snap-v1", Quantity: 1}},
		PaymentMethod: enums.PaymentMethodOnline,
	}, "op-2")
	require.NoError(t, err)

	require.Len(t, sale.Items, 1)
	item := sale.Items[0]
	assert.Equal(t, product.Title, item.Title)
	assert.Equal(t, variant.SKU, item.SKU)
	// No price override: the catalog price is charged, and the compare-at
	// price becomes the commission baseline.
	assert.Equal(t, "12.00", item.Price.StringFixed(2))
	assert.Equal(t, "14.00", item.OriginalPrice.StringFixed(2))
}

func TestCommitSaleRollsBackOnUnknownVariant(t *testing.T) {
	svc, conn := newTestService(t)
	mustSeedProduct(t, conn, "r1", 10.00, 0, 5)

	_, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Items: []SaleLineInput{
			{ProductID: "r1", VariantID: "r1-v1", Quantity: 1},
			{ProductID: "ghost", VariantID: "ghost-v1", Quantity: 1},
		},
		PaymentMethod: enums.PaymentMethodCard,
	}, "op-1")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	// Nothing is partially recorded: no sale, no decrement, no events.
	var saleCount int64
	require.NoError(t, conn.Model(&models.Sale{}).Count(&saleCount).Error)
	assert.Zero(t, saleCount)

	var variant models.ProductVariant
	require.NoError(t, conn.First(&variant, "id = ?", "r1-v1").Error)
	assert.Equal(t, 5, variant.InventoryQuantity)

	var eventCount int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&eventCount).Error)
	assert.Zero(t, eventCount)
}

func TestCommitSaleValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CommitSale(ctx, CommitSaleInput{PaymentMethod: enums.PaymentMethodCash}, "op-1")
	require.Error(t, err)

	_, err = svc.CommitSale(ctx, CommitSaleInput{
		Items:         []SaleLineInput{{ProductID: "x", VariantID: "x-v1", Quantity: 1}},
		PaymentMethod: "barter",
	}, "op-1")
	require.Error(t, err)

	_, err = svc.CommitSale(ctx, CommitSaleInput{
		Items:         []SaleLineInput{{ProductID: "x", VariantID: "x-v1", Quantity: 0}},
		PaymentMethod: enums.PaymentMethodCash,
	}, "op-1")
	require.Error(t, err)

	_, err = svc.CommitSale(ctx, CommitSaleInput{
		Items:         []SaleLineInput{{ProductID: "x", VariantID: "x-v1", Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCash,
	}, "")
	require.Error(t, err)
}

func TestCommitSaleRejectsInsufficientCash(t *testing.T) {
	svc, conn := newTestService(t)
	mustSeedProduct(t, conn, "cash", 40.00, 0, 5)

	_, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Items:          []SaleLineInput{{ProductID: "cash", VariantID: "cash-v1", Quantity: 1}},
		PaymentMethod:  enums.PaymentMethodCash,
		AmountReceived: decimal.NewFromFloat(30.00),
	}, "op-1")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRefundSaleRestocksAndQueuesEvents(t *testing.T) {
	svc, conn := newTestService(t)
	mustSeedProduct(t, conn, "rf", 20.00, 0, 10)

	sale, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Items:         []SaleLineInput{{ProductID: "rf", VariantID: "rf-v1", Quantity: 4}},
		PaymentMethod: enums.PaymentMethodCard,
	}, "op-1")
	require.NoError(t, err)

	refunded, err := svc.RefundSale(context.Background(), sale.ID, "op-1")
	require.NoError(t, err)
	assert.Equal(t, enums.SaleStatusRefunded, refunded.Status)

	var variant models.ProductVariant
	require.NoError(t, conn.First(&variant, "id = ?", "rf-v1").Error)
	assert.Equal(t, 10, variant.InventoryQuantity)

	var restocks []models.OutboxEvent
	require.NoError(t, conn.Where("event_type = ?", enums.EventStockRestock).Find(&restocks).Error)
	require.Len(t, restocks, 1)

	decoded, err := outbox.DecodeStockAdjustment(restocks[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Delta)
	assert.Equal(t, "inv-rf", decoded.InventoryItemID)

	// A second refund is a state conflict.
	_, err = svc.RefundSale(context.Background(), sale.ID, "op-1")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestVoidSale(t *testing.T) {
	svc, conn := newTestService(t)
	mustSeedProduct(t, conn, "vd", 5.00, 0, 6)

	sale, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Items:          []SaleLineInput{{ProductID: "vd", VariantID: "vd-v1", Quantity: 1}},
		PaymentMethod:  enums.PaymentMethodCash,
		AmountReceived: decimal.NewFromFloat(5.00),
	}, "op-1")
	require.NoError(t, err)

	voided, err := svc.VoidSale(context.Background(), sale.ID, "op-1")
	require.NoError(t, err)
	assert.Equal(t, enums.SaleStatusVoided, voided.Status)

	var variant models.ProductVariant
	require.NoError(t, conn.First(&variant, "id = ?", "vd-v1").Error)
	assert.Equal(t, 6, variant.InventoryQuantity)
}

func TestListSalesStatsMatchFilter(t *testing.T) {
	svc, conn := newTestService(t)
	mustSeedProduct(t, conn, "ls", 10.00, 0, 100)
	ctx := context.Background()

	employee := "emp-7"
	for i := 0; i < 3; i++ {
		input := CommitSaleInput{
			Items:         []SaleLineInput{{ProductID: "ls", VariantID: "ls-v1", Quantity: 1}},
			PaymentMethod: enums.PaymentMethodCard,
		}
		if i < 2 {
			input.EmployeeID = &employee
		}
		_, err := svc.CommitSale(ctx, input, "op-1")
		require.NoError(t, err)
	}

	result, err := svc.ListSales(ctx, ListSalesInput{EmployeeID: &employee})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	require.Len(t, result.Sales, 2)
	assert.Equal(t, int64(2), result.Stats.Count)
	assert.Equal(t, "20.00", result.Stats.Revenue.StringFixed(2))
	assert.Equal(t, "0.20", result.Stats.Commission.StringFixed(2))

	// Pagination bounds never skew the aggregate.
	paged, err := svc.ListSales(ctx, ListSalesInput{EmployeeID: &employee, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, paged.Sales, 1)
	assert.Equal(t, int64(2), paged.Total)
	assert.Equal(t, int64(2), paged.Stats.Count)
}

func TestListSalesStatusFilter(t *testing.T) {
	svc, conn := newTestService(t)
	mustSeedProduct(t, conn, "st", 10.00, 0, 50)
	ctx := context.Background()

	first, err := svc.CommitSale(ctx, CommitSaleInput{
		Items:         []SaleLineInput{{ProductID: "st", VariantID: "st-v1", Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCard,
	}, "op-1")
	require.NoError(t, err)
	_, err = svc.CommitSale(ctx, CommitSaleInput{
		Items:         []SaleLineInput{{ProductID: "st", VariantID: "st-v1", Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCard,
	}, "op-1")
	require.NoError(t, err)

	_, err = svc.RefundSale(ctx, first.ID, "op-1")
	require.NoError(t, err)

	status := enums.SaleStatusCompleted
	result, err := svc.ListSales(ctx, ListSalesInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, int64(1), result.Stats.Count)
}
