package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchRecord is the dedup ledger: at most one row per (preference, inventory
// row) pair, ever. The composite primary key backs the insert-if-absent write
// that keeps notification creation at-most-once under concurrent runs.
type MatchRecord struct {
	PreferenceID   uuid.UUID `gorm:"column:preference_id;type:uuid;primaryKey"`
	InventoryRowID uuid.UUID `gorm:"column:inventory_row_id;type:uuid;primaryKey"`
	NotifiedAt     time.Time `gorm:"column:notified_at;not null"`
}
