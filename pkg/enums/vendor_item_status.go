package enums

// VendorItemStatus is the vendor-local fulfillment state of one order line,
// distinct from the parent order status.
type VendorItemStatus string

const (
	VendorItemStatusPending   VendorItemStatus = "pending"
	VendorItemStatusShipped   VendorItemStatus = "shipped"
	VendorItemStatusDelivered VendorItemStatus = "delivered"
)

var validVendorItemStatuses = []VendorItemStatus{
	VendorItemStatusPending,
	VendorItemStatusShipped,
	VendorItemStatusDelivered,
}

// String implements fmt.Stringer.
func (s VendorItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known VendorItemStatus.
func (s VendorItemStatus) IsValid() bool {
	for _, candidate := range validVendorItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
