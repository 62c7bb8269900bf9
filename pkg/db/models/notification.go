package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/roomradar/roomradar-backend/pkg/enums"
)

// Notification is one queued alert awaiting email dispatch. MatchData is a
// denormalized snapshot captured at classification time so later inventory
// changes never alter historical notification content.
type Notification struct {
	ID             uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PreferenceID   uuid.UUID                `gorm:"column:preference_id;type:uuid;not null;index"`
	UserID         uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	HotelID        uuid.UUID                `gorm:"column:hotel_id;type:uuid;not null"`
	InventoryRowID uuid.UUID                `gorm:"column:inventory_row_id;type:uuid;not null"`
	Type           enums.NotificationType   `gorm:"column:type;type:text;not null"`
	MatchData      json.RawMessage          `gorm:"column:match_data;type:jsonb;not null"`
	Status         enums.NotificationStatus `gorm:"column:status;type:text;not null;default:pending;index"`
	RetryCount     int                      `gorm:"column:retry_count;not null;default:0"`
	ErrorMessage   *string                  `gorm:"column:error_message;type:text"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
	SentAt         *time.Time               `gorm:"column:sent_at"`
}

// MatchSnapshot is the shape serialized into Notification.MatchData.
type MatchSnapshot struct {
	HotelName        string    `json:"hotelName"`
	StayDate         time.Time `json:"stayDate"`
	PriceYen         int       `json:"priceYen"`
	AvailableRooms   int       `json:"availableRooms"`
	DaysUntilCheckin int       `json:"daysUntilCheckin"`
}

// Snapshot decodes MatchData, returning a zero value when the payload is
// missing or malformed.
func (n Notification) Snapshot() MatchSnapshot {
	var snap MatchSnapshot
	if len(n.MatchData) == 0 {
		return snap
	}
	_ = json.Unmarshal(n.MatchData, &snap)
	return snap
}
