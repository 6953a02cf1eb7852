package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// Assignment binds exactly one delivery agent to an order. The unique
// index on OrderID is the hard guarantee that auto-assignment can never
// double-assign an order. OTPCode gates the final delivered transition.
type Assignment struct {
	ID                    uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	AgentID               uuid.UUID              `gorm:"column:agent_id;type:uuid;not null;index"`
	Status                enums.AssignmentStatus `gorm:"column:status;type:text;not null;default:'assigned';index"`
	OTPCode               string                 `gorm:"column:otp_code"`
	OTPVerified           bool                   `gorm:"column:otp_verified;not null;default:false"`
	PickupAddress         string                 `gorm:"column:pickup_address"`
	DeliveryAddress       string                 `gorm:"column:delivery_address;not null"`
	DeliveryCity          string                 `gorm:"column:delivery_city"`
	DeliveryLatitude      *float64               `gorm:"column:delivery_latitude"`
	DeliveryLongitude     *float64               `gorm:"column:delivery_longitude"`
	DeliveryFee           decimal.Decimal        `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	EstimatedDeliveryDate time.Time              `gorm:"column:estimated_delivery_date;not null"`
	DeliveredAt           *time.Time             `gorm:"column:delivered_at"`
	CustomerContact       string                 `gorm:"column:customer_contact"`
	Order                 *Order                 `gorm:"foreignKey:OrderID"`
	Agent                 *AgentProfile          `gorm:"foreignKey:AgentID"`
	Events                []TrackingEvent        `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
