package models

import (
	"time"

	"github.com/google/uuid"
)

// Hotel is the location record area matching resolves against. Owned by the
// inventory ingestion pipeline; read-only here.
type Hotel struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string    `gorm:"column:name;type:text;not null"`
	City       string    `gorm:"column:city;type:text;not null"`
	Prefecture string    `gorm:"column:prefecture;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
