package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// OrderStatusHistory is an append-only audit row for every order status
// change.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Notes     string            `gorm:"column:notes"`
	ChangedBy *uuid.UUID        `gorm:"column:changed_by;type:uuid"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
