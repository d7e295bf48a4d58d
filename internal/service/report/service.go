package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	domainFine "github.com/cmlabs-hris/presence-backend-go/internal/domain/fine"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/presence-backend-go/internal/service/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/service/fine"
	"golang.org/x/sync/errgroup"
)

// defaultEntryHour stands in for a missing entry time when sorting by entry.
const defaultEntryHour = 20

type Options struct {
	DefaultWindow int
	MaxWindow     int
	// Concurrency bounds per-employee fetches during a dashboard build.
	Concurrency int
}

type ReportServiceImpl struct {
	store      presence.AttendanceRecordStore
	directory  employee.Directory
	aggregator *attendance.Aggregator
	policy     *fine.Policy
	clock      clock.Clock
	opts       Options
}

func NewReportService(
	store presence.AttendanceRecordStore,
	directory employee.Directory,
	aggregator *attendance.Aggregator,
	policy *fine.Policy,
	clk clock.Clock,
	opts Options,
) report.Service {
	if clk == nil {
		clk = clock.System()
	}
	if opts.DefaultWindow <= 0 {
		opts.DefaultWindow = 30
	}
	if opts.MaxWindow < opts.DefaultWindow {
		opts.MaxWindow = opts.DefaultWindow
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	return &ReportServiceImpl{
		store:      store,
		directory:  directory,
		aggregator: aggregator,
		policy:     policy,
		clock:      clk,
		opts:       opts,
	}
}

// row carries the sort keys next to the rendered row.
type row struct {
	report.RosterRow
	online bool
	entry  *time.Time
}

// BuildDashboard implements report.Service.
func (s *ReportServiceImpl) BuildDashboard(ctx context.Context, req report.DashboardRequest) (report.DashboardResponse, error) {
	started := time.Now()
	defer func() {
		metrics.ObserveDashboard(time.Since(started).Seconds())
	}()

	window := req.WindowDays
	if window == 0 {
		window = s.opts.DefaultWindow
	}
	if window < 1 || window > s.opts.MaxWindow {
		return report.DashboardResponse{}, report.ErrInvalidWindow
	}
	switch req.SortKey {
	case report.SortNone, report.SortEntryAsc, report.SortEntryDesc:
	default:
		return report.DashboardResponse{}, report.ErrInvalidSortKey
	}

	now := s.clock.Now()
	loc := s.aggregator.Location()
	today := presence.DateOf(now, loc)
	windowStart := today.AddDate(0, 0, -(window - 1))
	months := fine.TrendMonths(today)

	from := windowStart
	if months[0].Before(from) {
		from = months[0]
	}

	roster, err := s.roster(ctx, req.Policy)
	if err != nil {
		return report.DashboardResponse{}, err
	}

	rows := make([]row, len(roster))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, emp := range roster {
		g.Go(func() error {
			records, err := s.store.ListRecordsInRange(gctx, emp.ID, from, today)
			if err != nil {
				return fmt.Errorf("failed to list records for employee %s: %w", emp.ID, err)
			}
			rows[i] = s.buildRow(req, emp, records, window, today, now, months)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.DashboardResponse{}, err
	}

	sortRows(rows, req.SortKey, today, loc)
	rows = pinRequester(rows, req.RequestingEmployeeID)

	resp := report.DashboardResponse{
		GeneratedAt: now.In(loc).Format(time.RFC3339),
		WindowDays:  window,
		From:        presence.FormatDate(windowStart),
		To:          presence.FormatDate(today),
		Rows:        make([]report.RosterRow, 0, len(rows)),
	}
	for _, r := range rows {
		resp.Rows = append(resp.Rows, r.RosterRow)
	}
	return resp, nil
}

func (s *ReportServiceImpl) roster(ctx context.Context, policy report.Policy) ([]employee.Employee, error) {
	employees, err := s.directory.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	out := make([]employee.Employee, 0, len(employees))
	for _, e := range employees {
		if policy.Includes(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ReportServiceImpl) buildRow(
	req report.DashboardRequest,
	emp employee.Employee,
	records []presence.AttendanceRecord,
	window int,
	today, now time.Time,
	months []time.Time,
) row {
	loc := s.aggregator.Location()
	lastMonth := months[1]

	r := row{RosterRow: report.RosterRow{
		EmployeeID: emp.ID,
		FullName:   emp.FullName,
		IsLead:     emp.IsLead,
		Days:       make([]report.DayCell, 0, window),
	}}

	summaries := make([]presence.DaySummary, 0, len(records))
	for _, rec := range records {
		summary := s.aggregator.Summarize(rec, now)
		summaries = append(summaries, summary)

		if rec.Date.Year() == lastMonth.Year() && rec.Date.Month() == lastMonth.Month() {
			r.LastMonthAttendanceCount++
		}
		if rec.Date.Equal(today) {
			r.online = attendance.IsOnline(rec.Intervals)
			r.entry = summary.EntryTime
		}
	}
	r.IsOnline = r.online

	for _, day := range s.aggregator.AlignToWindow(emp.ID, window, today, records, now) {
		if req.WeekdaysOnly && isWeekend(day.Date) {
			continue
		}
		cell := report.DayCell{
			Date:    presence.FormatDate(day.Date),
			Weekday: day.Date.Weekday().String(),
		}
		if day.Summary != nil {
			if day.Summary.Anomalous {
				r.HasAnomaly = true
				metrics.IncAnomalousRecord()
			}
			rendered := presence.NewDaySummaryResponse(*day.Summary, loc, s.policy.IsLateSummary(day.Summary))
			cell.Summary = &rendered
		}
		r.Days = append(r.Days, cell)
	}

	if req.Policy.CanViewFines(req.RequestingEmployeeID, emp.ID) {
		trend := make([]domainFine.MonthlyFine, 0, len(months))
		for _, m := range months {
			trend = append(trend, s.policy.Monthly(emp, summaries, m.Year(), m.Month()))
		}
		resp := domainFine.NewTrendResponse(emp.ID, months[len(months)-1], trend)
		r.FineTrend = &resp
	}

	return r
}

// sortRows orders online employees first, then by today's entry time when a sort key is set,
// then by employee id.
func sortRows(rows []row, key report.SortKey, today time.Time, loc *time.Location) {
	fallback := time.Date(today.Year(), today.Month(), today.Day(), defaultEntryHour, 0, 0, 0, loc)
	entryOf := func(r row) time.Time {
		if r.entry == nil {
			return fallback
		}
		return *r.entry
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].online != rows[j].online {
			return rows[i].online
		}
		if key != report.SortNone {
			ei, ej := entryOf(rows[i]), entryOf(rows[j])
			if !ei.Equal(ej) {
				if key == report.SortEntryDesc {
					return ej.Before(ei)
				}
				return ei.Before(ej)
			}
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})
}

// pinRequester moves the requesting employee's row to the front.
func pinRequester(rows []row, requesterID string) []row {
	if requesterID == "" {
		return rows
	}
	for i, r := range rows {
		if r.EmployeeID != requesterID {
			continue
		}
		if i == 0 {
			return rows
		}
		pinned := make([]row, 0, len(rows))
		pinned = append(pinned, r)
		pinned = append(pinned, rows[:i]...)
		pinned = append(pinned, rows[i+1:]...)
		return pinned
	}
	return rows
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Timeline implements report.Service.
func (s *ReportServiceImpl) Timeline(ctx context.Context, req report.TimelineRequest) (report.TimelineResponse, error) {
	loc := s.aggregator.Location()
	now := s.clock.Now()

	date := presence.DateOf(now, loc)
	if req.Date != "" {
		parsed, ok := validator.IsValidDate(req.Date)
		if !ok {
			return report.TimelineResponse{}, report.ErrInvalidDate
		}
		date = parsed
	}

	roster, err := s.roster(ctx, req.Policy)
	if err != nil {
		return report.TimelineResponse{}, err
	}

	records, err := s.store.ListRecordsByDate(ctx, date)
	if err != nil {
		return report.TimelineResponse{}, fmt.Errorf("failed to list records for %s: %w", presence.FormatDate(date), err)
	}
	byEmployee := make(map[string]presence.AttendanceRecord, len(records))
	for _, rec := range records {
		byEmployee[rec.EmployeeID] = rec
	}

	resp := report.TimelineResponse{
		Date: presence.FormatDate(date),
		Rows: make([]report.TimelineRow, 0, len(roster)),
	}
	for _, emp := range roster {
		tr := report.TimelineRow{
			EmployeeID: emp.ID,
			FullName:   emp.FullName,
			Spans:      []report.TimelineSpan{},
		}
		rec, ok := byEmployee[emp.ID]
		if ok {
			tr.IsOnline = attendance.IsOnline(rec.Intervals)
			for _, iv := range rec.Intervals {
				end := now
				if iv.EndTime != nil {
					end = *iv.EndTime
				}
				tr.Spans = append(tr.Spans, report.TimelineSpan{
					Start:          iv.StartTime.In(loc).Format("15:04:05"),
					End:            end.In(loc).Format("15:04:05"),
					Open:           iv.IsOpen(),
					ClosedBySystem: iv.ClosedBySystem,
				})
			}
			summary := s.aggregator.Summarize(rec, now)
			rendered := presence.NewDaySummaryResponse(summary, loc, s.policy.IsLateSummary(&summary))
			tr.Summary = &rendered
		}
		resp.Rows = append(resp.Rows, tr)
	}
	return resp, nil
}
