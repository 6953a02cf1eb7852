package enums

// AgentApprovalStatus is the admin review state of a delivery agent profile.
type AgentApprovalStatus string

const (
	AgentApprovalPending  AgentApprovalStatus = "pending"
	AgentApprovalApproved AgentApprovalStatus = "approved"
	AgentApprovalRejected AgentApprovalStatus = "rejected"
)

var validAgentApprovalStatuses = []AgentApprovalStatus{
	AgentApprovalPending,
	AgentApprovalApproved,
	AgentApprovalRejected,
}

// String implements fmt.Stringer.
func (s AgentApprovalStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AgentApprovalStatus.
func (s AgentApprovalStatus) IsValid() bool {
	for _, candidate := range validAgentApprovalStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// AgentAvailability says whether an agent can take a new assignment.
type AgentAvailability string

const (
	AgentAvailable  AgentAvailability = "available"
	AgentOnDelivery AgentAvailability = "on_delivery"
)

// String implements fmt.Stringer.
func (a AgentAvailability) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AgentAvailability.
func (a AgentAvailability) IsValid() bool {
	return a == AgentAvailable || a == AgentOnDelivery
}
