package models

import (
	"time"

	"github.com/google/uuid"
)

// Preference is a user's standing hotel-search criteria. Deactivation flips
// IsActive instead of deleting so the dedup ledger keeps its history.
type Preference struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	HotelID         *uuid.UUID `gorm:"column:hotel_id;type:uuid"`
	AreaName        *string    `gorm:"column:area_name;type:text"`
	MinPriceYen     *int       `gorm:"column:min_price_yen"`
	MaxPriceYen     *int       `gorm:"column:max_price_yen"`
	CheckinDate     *time.Time `gorm:"column:checkin_date;type:date"`
	CheckoutDate    *time.Time `gorm:"column:checkout_date;type:date"`
	FlexibilityDays int        `gorm:"column:flexibility_days;not null;default:0"`

	NotifyLastMinute      bool `gorm:"column:notify_last_minute;not null;default:true"`
	NotifyPriceDrop       bool `gorm:"column:notify_price_drop;not null;default:true"`
	NotifyNewAvailability bool `gorm:"column:notify_new_availability;not null;default:true"`

	IsActive  bool      `gorm:"column:is_active;not null;default:true;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
