package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// Order is the customer-facing order header. Monetary fields are frozen
// at checkout; Status walks the lifecycle enum and every change is
// mirrored into OrderStatusHistory.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string               `gorm:"column:order_number;not null;uniqueIndex"`
	TransactionID   string               `gorm:"column:transaction_id;not null"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	Subtotal        decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax             decimal.Decimal      `gorm:"column:tax;type:numeric(12,2);not null"`
	ShippingFee     decimal.Decimal      `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	Total           decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	Status          enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending';index"`
	PaymentStatus   enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null"`
	AddressID       *uuid.UUID           `gorm:"column:address_id;type:uuid"`
	DeliveryAgentID *uuid.UUID           `gorm:"column:delivery_agent_id;type:uuid"`
	Address         *Address             `gorm:"foreignKey:AddressID"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *Payment             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History         []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
