package report

import (
	"slices"
	"strings"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
)

// Capability is what the caller may see or change.
type Capability string

const (
	CapabilitySuperUser        Capability = "super_user"
	CapabilityManagementViewer Capability = "management_viewer"
	CapabilitySelf             Capability = "self"
)

// ParseCapability maps a claim value to a Capability. Unknown values fall back to CapabilitySelf.
func ParseCapability(s string) Capability {
	switch Capability(strings.ToLower(strings.TrimSpace(s))) {
	case CapabilitySuperUser:
		return CapabilitySuperUser
	case CapabilityManagementViewer:
		return CapabilityManagementViewer
	default:
		return CapabilitySelf
	}
}

// Policy scopes a report to what the caller is allowed to see.
type Policy struct {
	Capability Capability

	// ExcludedEmployeeIDs never appear on the roster (e.g. management).
	ExcludedEmployeeIDs []string

	// Eligible overrides the default roster filter (active and shown in the attendance list).
	Eligible func(employee.Employee) bool
}

// Includes reports whether e belongs on the roster.
func (p Policy) Includes(e employee.Employee) bool {
	if slices.Contains(p.ExcludedEmployeeIDs, e.ID) {
		return false
	}
	if p.Eligible != nil {
		return p.Eligible(e)
	}
	return e.TrackedForAttendance()
}

// CanViewFines reports whether requesterID may see the fines of employeeID.
func (p Policy) CanViewFines(requesterID, employeeID string) bool {
	switch p.Capability {
	case CapabilitySuperUser, CapabilityManagementViewer:
		return true
	default:
		return requesterID != "" && requesterID == employeeID
	}
}

// CanToggle reports whether requesterID may change the presence of employeeID.
func (p Policy) CanToggle(requesterID, employeeID string) bool {
	if p.Capability == CapabilitySuperUser {
		return true
	}
	return requesterID != "" && requesterID == employeeID
}
