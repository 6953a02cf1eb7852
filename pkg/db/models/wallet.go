package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a user's running balance. The invariant
// balance = total_credited - total_debited is maintained by the wallet
// service under a FOR UPDATE row lock. IsPlatform marks the single
// admin wallet that settlement is allowed to drive negative.
type Wallet struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Balance       decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	TotalCredited decimal.Decimal `gorm:"column:total_credited;type:numeric(12,2);not null;default:0"`
	TotalDebited  decimal.Decimal `gorm:"column:total_debited;type:numeric(12,2);not null;default:0"`
	IsPlatform    bool            `gorm:"column:is_platform;not null;default:false"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
