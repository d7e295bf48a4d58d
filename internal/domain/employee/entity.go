package employee

// Employee is the read-only view of a directory entry the attendance engine consumes.
type Employee struct {
	ID                   string
	FullName             string
	Active               bool
	ShowInAttendanceList bool
	IsLead               bool
	LateFineExempt       bool
}

// TrackedForAttendance reports whether the employee belongs on the attendance roster.
func (e Employee) TrackedForAttendance() bool {
	return e.Active && e.ShowInAttendanceList
}
