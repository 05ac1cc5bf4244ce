package outbox

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmarsh-dev/lumapos-backend/pkg/db/models"
	"github.com/dmarsh-dev/lumapos-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestEmitAndDrainLifecycle(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	adjustment := StockAdjustment{
		SaleID:          7,
		ProductID:       "9914",
		VariantID:       "9914-1",
		InventoryItemID: "inv-552",
		Delta:           -2,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventStockDecrement,
			AggregateType: enums.AggregateSale,
			AggregateID:   "7",
			Version:       1,
			Data:          adjustment,
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, enums.EventStockDecrement, rows[0].EventType)

	decoded, err := DecodeStockAdjustment(rows[0].Payload)
	require.NoError(t, err)
	require.Equal(t, adjustment, *decoded)

	require.NoError(t, repo.MarkPublished(rows[0].ID))
	rows, err = repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestEmitRequiresTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	require.Error(t, err)
}

func TestMarkFailedIncrementsAttempts(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventStockDecrement,
			AggregateType: enums.AggregateSale,
			AggregateID:   "9",
			Version:       1,
			Data:          StockAdjustment{SaleID: 9, Delta: -1},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublishedForAggregate("9")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, repo.MarkFailed(rows[0].ID, context.DeadlineExceeded))

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "aggregate_id = ?", "9").Error)
	require.Equal(t, 1, row.AttemptCount)
	require.NotNil(t, row.LastError)
	require.Nil(t, row.PublishedAt)
}
