package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// WalletTransaction is the append-only journal of a wallet.
// BalanceAfter snapshots the balance at write time so the journal can
// be audited without replaying it.
type WalletTransaction struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID     uuid.UUID       `gorm:"column:wallet_id;type:uuid;not null;index"`
	Type         enums.EntryType `gorm:"column:type;type:text;not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Description  string          `gorm:"column:description"`
	BalanceAfter decimal.Decimal `gorm:"column:balance_after;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
