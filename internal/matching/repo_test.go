package matching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One shared-cache memory database per test keeps the schema visible
	// across pooled connections without leaking rows between tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	matchRecords := `
CREATE TABLE IF NOT EXISTS match_records (
  preference_id TEXT NOT NULL,
  inventory_row_id TEXT NOT NULL,
  notified_at DATETIME NOT NULL,
  PRIMARY KEY (preference_id, inventory_row_id)
);`
	notifications := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  preference_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  hotel_id TEXT NOT NULL,
  inventory_row_id TEXT NOT NULL,
  type TEXT NOT NULL,
  match_data TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  retry_count INTEGER NOT NULL DEFAULT 0,
  error_message TEXT,
  created_at DATETIME,
  sent_at DATETIME
);`
	require.NoError(t, db.Exec(matchRecords).Error)
	require.NoError(t, db.Exec(notifications).Error)
	return db
}

func TestInsertIfAbsentIsIdempotent(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	record := models.MatchRecord{
		PreferenceID:   uuid.New(),
		InventoryRowID: uuid.New(),
		NotifiedAt:     time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
	}

	inserted, err := repo.InsertIfAbsent(ctx, nil, record)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertIfAbsent(ctx, nil, record)
	require.NoError(t, err)
	assert.False(t, inserted)

	var count int64
	require.NoError(t, db.Model(&models.MatchRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInsertIfAbsentAllowsDifferentRowsForSamePreference(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()
	prefID := uuid.New()

	for i := 0; i < 2; i++ {
		inserted, err := repo.InsertIfAbsent(ctx, nil, models.MatchRecord{
			PreferenceID:   prefID,
			InventoryRowID: uuid.New(),
			NotifiedAt:     time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.True(t, inserted)
	}
}

func TestListNotifiedRowIDsReturnsSet(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	prefID := uuid.New()
	rowA := uuid.New()
	rowB := uuid.New()
	otherPref := uuid.New()

	for _, record := range []models.MatchRecord{
		{PreferenceID: prefID, InventoryRowID: rowA, NotifiedAt: time.Now().UTC()},
		{PreferenceID: prefID, InventoryRowID: rowB, NotifiedAt: time.Now().UTC()},
		{PreferenceID: otherPref, InventoryRowID: uuid.New(), NotifiedAt: time.Now().UTC()},
	} {
		_, err := repo.InsertIfAbsent(ctx, nil, record)
		require.NoError(t, err)
	}

	set, err := repo.ListNotifiedRowIDs(ctx, prefID)
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Contains(t, set, rowA)
	assert.Contains(t, set, rowB)
}

func TestCreateTxEnqueuesPendingNotification(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	notification := &models.Notification{
		ID:             uuid.New(),
		PreferenceID:   uuid.New(),
		UserID:         uuid.New(),
		HotelID:        uuid.New(),
		InventoryRowID: uuid.New(),
		Type:           "match",
		MatchData:      []byte(`{"hotelName":"Sakura Inn"}`),
		Status:         "pending",
	}
	require.NoError(t, repo.CreateTx(ctx, nil, notification))

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", notification.ID).Error)
	assert.Equal(t, notification.PreferenceID, stored.PreferenceID)
	assert.Equal(t, "Sakura Inn", stored.Snapshot().HotelName)
}
