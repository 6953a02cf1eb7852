package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// LedgerEntry records a vendor-facing money event: a settlement credit
// or a withdrawal debit.
type LedgerEntry struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID    uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index"`
	OrderID     *uuid.UUID      `gorm:"column:order_id;type:uuid"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	EntryType   enums.EntryType `gorm:"column:entry_type;type:text;not null"`
	Description string          `gorm:"column:description"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
