package enums

import "fmt"

// OrderStatus tracks the customer-visible order lifecycle.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusApproved         OrderStatus = "approved"
	OrderStatusRejected         OrderStatus = "rejected"
	OrderStatusPacked           OrderStatus = "packed"
	OrderStatusDeliveryAssigned OrderStatus = "delivery_assigned"
	OrderStatusShipping         OrderStatus = "shipping"
	OrderStatusNearby           OrderStatus = "nearby"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusApproved,
	OrderStatusRejected,
	OrderStatusPacked,
	OrderStatusDeliveryAssigned,
	OrderStatusShipping,
	OrderStatusNearby,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
