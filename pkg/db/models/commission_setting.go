package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// CommissionSetting configures the platform's cut per product category.
// A nil Category is the global fallback row. At most one row per
// category is enforced by the unique index.
type CommissionSetting struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Category       *string              `gorm:"column:category;uniqueIndex"`
	Percentage     decimal.Decimal      `gorm:"column:percentage;type:numeric(12,2);not null"`
	BasicFee       decimal.Decimal      `gorm:"column:basic_fee;type:numeric(12,2);not null"`
	CommissionType enums.CommissionType `gorm:"column:commission_type;type:text;not null;default:'percentage'"`
	IsActive       bool                 `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
