package report

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/fine"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

// SortKey orders rows by today's entry time after the online flag.
type SortKey string

const (
	SortNone      SortKey = ""
	SortEntryAsc  SortKey = "entry"
	SortEntryDesc SortKey = "-entry"
)

// ========================================
// DASHBOARD
// ========================================

// DashboardQuery is the raw query string of the dashboard endpoint.
type DashboardQuery struct {
	Window       string
	Sort         string
	WeekdaysOnly string
}

// DashboardRequest is a validated dashboard build request.
type DashboardRequest struct {
	WindowDays           int
	SortKey              SortKey
	WeekdaysOnly         bool
	RequestingEmployeeID string
	Policy               Policy
}

// ToRequest validates q. An empty window falls back to defaultWindow.
func (q *DashboardQuery) ToRequest(defaultWindow, maxWindow int) (DashboardRequest, error) {
	var errs validator.ValidationErrors
	req := DashboardRequest{WindowDays: defaultWindow}

	if !validator.IsEmpty(q.Window) {
		n, ok := validator.IntInRange(q.Window, 1, maxWindow)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "window",
				Message: fmt.Sprintf("window must be between 1 and %d", maxWindow),
			})
		}
		req.WindowDays = n
	}

	sortKey := SortKey(strings.TrimSpace(q.Sort))
	switch sortKey {
	case SortNone, SortEntryAsc, SortEntryDesc:
		req.SortKey = sortKey
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "sort",
			Message: ErrInvalidSortKey.Error(),
		})
	}

	switch strings.ToLower(strings.TrimSpace(q.WeekdaysOnly)) {
	case "", "false", "0":
	case "true", "1":
		req.WeekdaysOnly = true
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "weekdays_only",
			Message: "weekdays_only must be true or false",
		})
	}

	if len(errs) > 0 {
		return DashboardRequest{}, errs
	}
	return req, nil
}

type DayCell struct {
	Date    string                       `json:"date"`
	Weekday string                       `json:"weekday"`
	Summary *presence.DaySummaryResponse `json:"summary"`
}

type RosterRow struct {
	EmployeeID               string              `json:"employee_id"`
	FullName                 string              `json:"full_name"`
	IsLead                   bool                `json:"is_lead"`
	IsOnline                 bool                `json:"is_online"`
	Days                     []DayCell           `json:"days"`
	LastMonthAttendanceCount int                 `json:"last_month_attendance_count"`
	FineTrend                *fine.TrendResponse `json:"fine_trend,omitempty"`
	HasAnomaly               bool                `json:"has_anomaly"`
}

type DashboardResponse struct {
	GeneratedAt string      `json:"generated_at"`
	WindowDays  int         `json:"window_days"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	Rows        []RosterRow `json:"rows"`
}

// ========================================
// TIMELINE
// ========================================

type TimelineRequest struct {
	Date   string
	Policy Policy
}

type TimelineSpan struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	Open           bool   `json:"open"`
	ClosedBySystem bool   `json:"closed_by_system"`
}

type TimelineRow struct {
	EmployeeID string                       `json:"employee_id"`
	FullName   string                       `json:"full_name"`
	IsOnline   bool                         `json:"is_online"`
	Spans      []TimelineSpan               `json:"spans"`
	Summary    *presence.DaySummaryResponse `json:"summary"`
}

type TimelineResponse struct {
	Date string        `json:"date"`
	Rows []TimelineRow `json:"rows"`
}
