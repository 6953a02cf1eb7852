package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentApprovalLog is an append-only audit row for admin decisions on
// agent accounts.
type AgentApprovalLog struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID     uuid.UUID `gorm:"column:agent_id;type:uuid;not null;index"`
	AdminUserID uuid.UUID `gorm:"column:admin_user_id;type:uuid;not null"`
	Action      string    `gorm:"column:action;not null"`
	Reason      string    `gorm:"column:reason"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
