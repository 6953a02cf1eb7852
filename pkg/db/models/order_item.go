package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// OrderItem is an immutable per-line snapshot taken at checkout.
// Product name and price are copied so later catalog edits never change
// what the customer bought, and the commission rate in force at
// checkout is frozen here for settlement.
type OrderItem struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	VendorID         uuid.UUID              `gorm:"column:vendor_id;type:uuid;not null;index"`
	ProductID        *uuid.UUID             `gorm:"column:product_id;type:uuid"`
	ProductName      string                 `gorm:"column:product_name;not null"`
	ProductPrice     decimal.Decimal        `gorm:"column:product_price;type:numeric(12,2);not null"`
	Quantity         int                    `gorm:"column:quantity;not null"`
	Subtotal         decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CommissionRate   decimal.Decimal        `gorm:"column:commission_rate;type:numeric(12,2);not null"`
	CommissionAmount decimal.Decimal        `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	VendorStatus     enums.VendorItemStatus `gorm:"column:vendor_status;type:text;not null;default:'pending'"`
	IsSettled        bool                   `gorm:"column:is_settled;not null;default:false"`
	SettledAt        *time.Time             `gorm:"column:settled_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
