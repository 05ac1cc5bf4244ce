package sales

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			vendor TEXT,
			product_type TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			handle TEXT UNIQUE,
			image_url TEXT,
			tags TEXT,
			sale_price NUMERIC NOT NULL DEFAULT 0,
			cost_price NUMERIC NOT NULL DEFAULT 0,
			quantity INTEGER NOT NULL DEFAULT 0,
			category_id INTEGER,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS product_variants (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			title TEXT,
			price NUMERIC NOT NULL DEFAULT 0,
			compare_at_price NUMERIC,
			sku TEXT,
			barcode TEXT,
			inventory_quantity INTEGER NOT NULL DEFAULT 0,
			inventory_item_id TEXT,
			inventory_management TEXT,
			position INTEGER NOT NULL DEFAULT 1,
			weight REAL,
			weight_unit TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			subtotal NUMERIC NOT NULL,
			discount NUMERIC NOT NULL,
			total NUMERIC NOT NULL,
			payment_method TEXT NOT NULL,
			amount_received NUMERIC NOT NULL,
			change NUMERIC NOT NULL,
			customer_name TEXT,
			customer_phone TEXT,
			status TEXT NOT NULL DEFAULT 'completed',
			commission NUMERIC NOT NULL,
			employee_id TEXT,
			operator_id TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sale_id INTEGER NOT NULL,
			product_id TEXT NOT NULL,
			variant_id TEXT NOT NULL,
			title TEXT NOT NULL,
			sku TEXT,
			image_url TEXT,
			price NUMERIC NOT NULL,
			original_price NUMERIC NOT NULL,
			quantity INTEGER NOT NULL,
			discount NUMERIC NOT NULL,
			commission NUMERIC NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME,
			published_at DATETIME,
			attempt_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT
		)`,
	}
	for _, stmt := range ddl {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply test schema: %v", err)
		}
	}
	return conn
}

func mustSeedProduct(t *testing.T, conn *gorm.DB, id string, price, compareAt float64, qty int) (*models.Product, *models.ProductVariant) {
	t.Helper()

	product := &models.Product{
		ID:        types.RemoteID(id),
		Title:     "Seed " + id,
		Status:    enums.ProductStatusActive,
		Handle:    "seed-" + id,
		SalePrice: decimal.NewFromFloat(price),
		CostPrice: decimal.Zero,
		Quantity:  qty,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	mgmt := "shopify"
	variant := &models.ProductVariant{
		ID:                  types.RemoteID(id + "-v1"),
		ProductID:           types.RemoteID(id),
		Title:               "Default",
		Price:               decimal.NewFromFloat(price),
		SKU:                 "SKU-" + id,
		InventoryQuantity:   qty,
		InventoryItemID:     types.RemoteID("inv-" + id),
		InventoryManagement: &mgmt,
		Position:            1,
	}
	if compareAt > 0 {
		compare := decimal.NewFromFloat(compareAt)
		variant.CompareAtPrice = &compare
	}
	if err := conn.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return product, variant
}
