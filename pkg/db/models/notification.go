package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// Notification is an in-app message for a user. Delivery is always
// best-effort; failing to write one never fails the triggering flow.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	OrderID   *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	IsRead    bool                   `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
