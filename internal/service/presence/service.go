package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/presence-backend-go/internal/service/attendance"
)

// LateChecker decides whether a day summary counts as a late arrival.
type LateChecker interface {
	IsLateSummary(s *presence.DaySummary) bool
}

type PresenceServiceImpl struct {
	store      presence.AttendanceRecordStore
	directory  employee.Directory
	aggregator *attendance.Aggregator
	lateness   LateChecker
	clock      clock.Clock
}

func NewPresenceService(
	store presence.AttendanceRecordStore,
	directory employee.Directory,
	aggregator *attendance.Aggregator,
	lateness LateChecker,
	clk clock.Clock,
) presence.Service {
	if clk == nil {
		clk = clock.System()
	}
	return &PresenceServiceImpl{
		store:      store,
		directory:  directory,
		aggregator: aggregator,
		lateness:   lateness,
		clock:      clk,
	}
}

// SetActive implements presence.Service.
func (s *PresenceServiceImpl) SetActive(ctx context.Context, employeeID string, active bool, now time.Time) (presence.ToggleResult, error) {
	emp, err := s.directory.GetByID(ctx, employeeID)
	if err != nil {
		metrics.IncToggle(active, "rejected")
		return presence.ToggleResult{}, err
	}
	if !emp.Active {
		metrics.IncToggle(active, "rejected")
		return presence.ToggleResult{}, employee.ErrEmployeeInactive
	}

	today := presence.DateOf(now, s.aggregator.Location())
	result := presence.ToggleResult{
		EmployeeID: employeeID,
		Date:       today,
		Active:     active,
	}

	err = s.store.WithinTx(ctx, func(txCtx context.Context) error {
		record, created, err := s.store.GetOrCreate(txCtx, employeeID, today)
		if err != nil {
			return fmt.Errorf("failed to get attendance record: %w", err)
		}
		result.RecordID = record.ID
		result.CreatedRecord = created

		if active {
			interval, err := s.store.AppendInterval(txCtx, record.ID, now)
			if err != nil {
				return fmt.Errorf("failed to open interval: %w", err)
			}
			result.Interval = &interval
			return nil
		}

		interval, err := s.store.CloseOpenInterval(txCtx, record.ID, now)
		if err != nil {
			return fmt.Errorf("failed to close interval: %w", err)
		}
		if interval == nil {
			result.NoOp = true
			return nil
		}
		result.Interval = interval
		return nil
	})
	if err != nil {
		if errors.Is(err, presence.ErrConcurrencyConflict) {
			metrics.IncToggle(active, "conflict")
		} else {
			metrics.IncToggle(active, "error")
		}
		return presence.ToggleResult{}, err
	}

	if result.NoOp {
		slog.Warn("No open interval to close", "employee_id", employeeID, "record_id", result.RecordID, "date", presence.FormatDate(today))
		metrics.IncToggle(active, "noop")
		return result, nil
	}

	metrics.IncToggle(active, "applied")
	return result, nil
}

// Status implements presence.Service.
func (s *PresenceServiceImpl) Status(ctx context.Context, employeeID string) (presence.StatusResponse, error) {
	if _, err := s.directory.GetByID(ctx, employeeID); err != nil {
		return presence.StatusResponse{}, err
	}

	now := s.clock.Now()
	loc := s.aggregator.Location()
	today := presence.DateOf(now, loc)

	records, err := s.store.ListRecordsInRange(ctx, employeeID, today, today)
	if err != nil {
		return presence.StatusResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}

	resp := presence.StatusResponse{
		EmployeeID: employeeID,
		Date:       presence.FormatDate(today),
		Intervals:  []presence.IntervalResponse{},
	}
	if len(records) == 0 {
		return resp, nil
	}

	record := records[0]
	summary := s.aggregator.Summarize(record, now)
	isLate := false
	if s.lateness != nil {
		isLate = s.lateness.IsLateSummary(&summary)
	}
	daySummary := presence.NewDaySummaryResponse(summary, loc, isLate)

	resp.IsOnline = attendance.IsOnline(record.Intervals)
	resp.Today = &daySummary
	for _, iv := range record.Intervals {
		resp.Intervals = append(resp.Intervals, presence.NewIntervalResponse(iv))
	}
	return resp, nil
}
