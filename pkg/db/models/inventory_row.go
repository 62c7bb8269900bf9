package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRow is one hotel/date snapshot of room price and availability.
// Owned and mutated exclusively by the inventory ingestion pipeline; only rows
// with AvailableRooms > 0 are matchable.
type InventoryRow struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HotelID        uuid.UUID `gorm:"column:hotel_id;type:uuid;not null;index"`
	StayDate       time.Time `gorm:"column:stay_date;type:date;not null;index"`
	AvailableRooms int       `gorm:"column:available_rooms;not null;default:0"`
	PriceYen       int       `gorm:"column:price_yen;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
