package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	"github.com/shopsphere/shopsphere-backend/pkg/types"
)

// AgentProfile is a delivery agent's operational record. ServiceCities
// and ServicePincodes widen the agent's coverage beyond the home
// address for tiered matching. AvailabilityStatus flips to on_delivery
// while an assignment is active.
type AgentProfile struct {
	ID                 uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Phone              string                    `gorm:"column:phone;not null"`
	VehicleType        string                    `gorm:"column:vehicle_type"`
	VehicleNumber      string                    `gorm:"column:vehicle_number"`
	ApprovalStatus     enums.AgentApprovalStatus `gorm:"column:approval_status;type:text;not null;default:'pending';index"`
	AvailabilityStatus enums.AgentAvailability   `gorm:"column:availability_status;type:text;not null;default:'available';index"`
	IsBlocked          bool                      `gorm:"column:is_blocked;not null;default:false"`
	IsActive           bool                      `gorm:"column:is_active;not null;default:true"`
	Address            string                    `gorm:"column:address"`
	City               string                    `gorm:"column:city;index"`
	State              string                    `gorm:"column:state"`
	PostalCode         string                    `gorm:"column:postal_code;index"`
	ServiceCities      types.StringList          `gorm:"column:service_cities;type:jsonb;serializer:json"`
	ServicePincodes    types.StringList          `gorm:"column:service_pincodes;type:jsonb;serializer:json"`
	Latitude           *float64                  `gorm:"column:latitude"`
	Longitude          *float64                  `gorm:"column:longitude"`
	TotalDeliveries    int                       `gorm:"column:total_deliveries;not null;default:0"`
	User               *User                     `gorm:"foreignKey:UserID"`
	CreatedAt          time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
