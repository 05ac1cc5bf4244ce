package catalog

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
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
		`CREATE INDEX IF NOT EXISTS idx_product_variants_product_id ON product_variants (product_id)`,
	}
	for _, stmt := range ddl {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply test schema: %v", err)
		}
	}
	return conn
}
