package matching

import (
	"context"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository persists the dedup ledger of already-notified pairs.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository returns a ledger repository bound to the provided database.
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ListNotifiedRowIDs returns the inventory row ids already recorded for the
// preference, as a set for cheap exclusion during matching.
func (r *LedgerRepository) ListNotifiedRowIDs(ctx context.Context, preferenceID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.MatchRecord{}).
		Where("preference_id = ?", preferenceID).
		Pluck("inventory_row_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// InsertIfAbsent writes the ledger record, reporting false when the pair was
// already present. The conflict-ignore write is what keeps notification
// creation at-most-once when two runs overlap.
func (r *LedgerRepository) InsertIfAbsent(ctx context.Context, tx *gorm.DB, record models.MatchRecord) (bool, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	result := conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "preference_id"}, {Name: "inventory_row_id"}},
			DoNothing: true,
		}).
		Create(&record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// NotificationRepository enqueues pending notifications for dispatch.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a notification writer bound to the provided database.
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateTx inserts the notification inside the caller's transaction.
func (r *NotificationRepository) CreateTx(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	return conn.WithContext(ctx).Create(notification).Error
}
