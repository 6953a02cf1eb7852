package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorProfile holds the storefront details of a vendor user.
type VendorProfile struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	ShopName   string     `gorm:"column:shop_name;not null"`
	Address    string     `gorm:"column:address;not null"`
	City       string     `gorm:"column:city;not null"`
	State      string     `gorm:"column:state"`
	Pincode    string     `gorm:"column:pincode"`
	IsApproved bool       `gorm:"column:is_approved;not null;default:false"`
	ApprovedAt *time.Time `gorm:"column:approved_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
