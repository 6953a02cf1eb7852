package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackingEvent is an append-only breadcrumb on a delivery assignment.
type TrackingEvent struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AssignmentID uuid.UUID `gorm:"column:assignment_id;type:uuid;not null;index"`
	Latitude     *float64  `gorm:"column:latitude"`
	Longitude    *float64  `gorm:"column:longitude"`
	Address      string    `gorm:"column:address"`
	Status       string    `gorm:"column:status;not null"`
	Notes        string    `gorm:"column:notes"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
