package models

import (
	"time"

	"github.com/google/uuid"
)

// User holds the recipient identity for notification delivery. Account
// management lives in the user-facing application; this service only reads.
type User struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
