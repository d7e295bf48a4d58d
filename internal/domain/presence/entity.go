package presence

import (
	"time"
)

// AttendanceRecord is the per-employee, per-day container of activity intervals.
// Date is a calendar date stored as midnight UTC.
type AttendanceRecord struct {
	ID         string
	EmployeeID string
	Date       time.Time
	CreatedAt  time.Time

	// Intervals is populated by range queries, ordered by StartTime then Seq.
	Intervals []ActivityInterval
}

// ActivityInterval is one continuous span during which the employee was marked present.
// EndTime is nil while the interval is open.
type ActivityInterval struct {
	ID                 string
	AttendanceRecordID string
	Seq                int64
	StartTime          time.Time
	EndTime            *time.Time
	ClosedBySystem     bool
	CreatedAt          time.Time
}

// IsOpen reports whether the interval has not been closed yet.
func (i ActivityInterval) IsOpen() bool {
	return i.EndTime == nil
}

// DaySummary is derived from a record's intervals and a reference "now". It is never persisted.
type DaySummary struct {
	Date         time.Time
	EntryTime    *time.Time
	ExitTime     *time.Time
	InsideOffice time.Duration
	Break        time.Duration
	IsOpenEnded  bool

	// Anomalous marks a record holding an interval that ends before it starts.
	// Anomalous summaries carry zero durations.
	Anomalous bool

	// ClosedBySystem is set when the last interval was closed by the auto-offline sweep.
	ClosedBySystem bool
}

// AlignedDay is one slot of a dense calendar window. Summary is nil when no record exists for Date.
type AlignedDay struct {
	Date    time.Time
	Summary *DaySummary
}

// ToggleResult describes the mutation SetActive performed.
type ToggleResult struct {
	RecordID      string
	EmployeeID    string
	Date          time.Time
	Active        bool
	CreatedRecord bool
	Interval      *ActivityInterval

	// NoOp is true for an "off" toggle that found no open interval.
	NoOp bool
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar date of t in loc, normalised to midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DateOf(a, loc).Equal(DateOf(b, loc))
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// ParseDate parses YYYY-MM-DD into a calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
