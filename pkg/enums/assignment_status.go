package enums

import "fmt"

// AssignmentStatus is the delivery assignment's own state machine:
// assigned → accepted → picked_up → in_transit → delivered | failed.
type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusAccepted  AssignmentStatus = "accepted"
	AssignmentStatusPickedUp  AssignmentStatus = "picked_up"
	AssignmentStatusInTransit AssignmentStatus = "in_transit"
	AssignmentStatusDelivered AssignmentStatus = "delivered"
	AssignmentStatusFailed    AssignmentStatus = "failed"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusAccepted,
	AssignmentStatusPickedUp,
	AssignmentStatusInTransit,
	AssignmentStatusDelivered,
	AssignmentStatusFailed,
}

// ActiveAssignmentStatuses are the states that count toward an agent's
// current workload.
var ActiveAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusAccepted,
	AssignmentStatusPickedUp,
	AssignmentStatusInTransit,
}

// String implements fmt.Stringer.
func (s AssignmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (s AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the assignment can no longer change state.
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStatusDelivered || s == AssignmentStatusFailed
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
