package presence

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

// ========================================
// TOGGLE DTOs
// ========================================

type ToggleRequest struct {
	EmployeeID string `json:"employee_id"`
	Active     *bool  `json:"active"`
}

func (r *ToggleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if r.Active == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "active",
			Message: "active is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type IntervalResponse struct {
	ID             string  `json:"id"`
	StartTime      string  `json:"start_time"`
	EndTime        *string `json:"end_time,omitempty"`
	ClosedBySystem bool    `json:"closed_by_system"`
}

type ToggleResponse struct {
	RecordID   string            `json:"record_id"`
	EmployeeID string            `json:"employee_id"`
	Date       string            `json:"date"`
	Active     bool              `json:"active"`
	NoOp       bool              `json:"no_op"`
	Interval   *IntervalResponse `json:"interval,omitempty"`
}

// NewToggleResponse converts a ToggleResult to its wire form.
func NewToggleResponse(res ToggleResult) ToggleResponse {
	out := ToggleResponse{
		RecordID:   res.RecordID,
		EmployeeID: res.EmployeeID,
		Date:       FormatDate(res.Date),
		Active:     res.Active,
		NoOp:       res.NoOp,
	}
	if res.Interval != nil {
		iv := NewIntervalResponse(*res.Interval)
		out.Interval = &iv
	}
	return out
}

func NewIntervalResponse(iv ActivityInterval) IntervalResponse {
	return IntervalResponse{
		ID:             iv.ID,
		StartTime:      iv.StartTime.Format(time.RFC3339),
		EndTime:        timePtrToString(iv.EndTime, time.RFC3339),
		ClosedBySystem: iv.ClosedBySystem,
	}
}

// ========================================
// SUMMARY DTOs
// ========================================

type DaySummaryResponse struct {
	EntryTime           *string `json:"entry_time"`
	ExitTime            *string `json:"exit_time"`
	InsideOfficeSeconds int64   `json:"inside_office_seconds"`
	BreakSeconds        int64   `json:"break_seconds"`
	InsideOffice        string  `json:"inside_office"`
	Break               string  `json:"break"`
	IsOpenEnded         bool    `json:"is_open_ended"`
	IsLate              bool    `json:"is_late"`
	Anomalous           bool    `json:"anomalous"`
	ClosedBySystem      bool    `json:"closed_by_system"`
}

// NewDaySummaryResponse renders a summary with clock times in loc.
func NewDaySummaryResponse(s DaySummary, loc *time.Location, isLate bool) DaySummaryResponse {
	return DaySummaryResponse{
		EntryTime:           localClock(s.EntryTime, loc),
		ExitTime:            localClock(s.ExitTime, loc),
		InsideOfficeSeconds: int64(s.InsideOffice / time.Second),
		BreakSeconds:        int64(s.Break / time.Second),
		InsideOffice:        FormatDuration(s.InsideOffice),
		Break:               FormatDuration(s.Break),
		IsOpenEnded:         s.IsOpenEnded,
		IsLate:              isLate,
		Anomalous:           s.Anomalous,
		ClosedBySystem:      s.ClosedBySystem,
	}
}

type StatusResponse struct {
	EmployeeID string              `json:"employee_id"`
	Date       string              `json:"date"`
	IsOnline   bool                `json:"is_online"`
	Today      *DaySummaryResponse `json:"today,omitempty"`
	Intervals  []IntervalResponse  `json:"intervals"`
}

// FormatDuration renders d as "Hh: Mm". Hours wrap at 24 like the legacy attendance sheet.
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	minutes := (secs / 60) % 60
	hours := (secs / 3600) % 24
	return fmt.Sprintf("%dh: %dm", hours, minutes)
}

func localClock(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format("15:04:05")
	return &s
}

func timePtrToString(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	s := t.Format(layout)
	return &s
}
