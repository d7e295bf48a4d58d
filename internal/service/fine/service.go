package fine

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	domainFine "github.com/cmlabs-hris/presence-backend-go/internal/domain/fine"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/service/attendance"
)

type FineServiceImpl struct {
	store      presence.AttendanceRecordStore
	directory  employee.Directory
	aggregator *attendance.Aggregator
	policy     *Policy
}

func NewFineService(
	store presence.AttendanceRecordStore,
	directory employee.Directory,
	aggregator *attendance.Aggregator,
	policy *Policy,
) domainFine.Service {
	return &FineServiceImpl{
		store:      store,
		directory:  directory,
		aggregator: aggregator,
		policy:     policy,
	}
}

// ComputeMonthlyFine implements fine.Service.
func (s *FineServiceImpl) ComputeMonthlyFine(ctx context.Context, employeeID string, year int, month time.Month) (domainFine.MonthlyFine, error) {
	emp, err := s.directory.GetByID(ctx, employeeID)
	if err != nil {
		return domainFine.MonthlyFine{}, err
	}

	ref := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	summaries, err := s.summaries(ctx, employeeID, ref, MonthEnd(ref))
	if err != nil {
		return domainFine.MonthlyFine{}, err
	}

	return s.policy.Monthly(emp, summaries, year, month), nil
}

// TrendSummary implements fine.Service.
func (s *FineServiceImpl) TrendSummary(ctx context.Context, employeeID string, referenceMonth time.Time) ([]domainFine.MonthlyFine, error) {
	emp, err := s.directory.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	months := TrendMonths(referenceMonth)
	summaries, err := s.summaries(ctx, employeeID, months[0], MonthEnd(months[len(months)-1]))
	if err != nil {
		return nil, err
	}

	trend := make([]domainFine.MonthlyFine, 0, len(months))
	for _, m := range months {
		trend = append(trend, s.policy.Monthly(emp, summaries, m.Year(), m.Month()))
	}
	return trend, nil
}

// summaries only needs entry times, so a zero now is fine here.
func (s *FineServiceImpl) summaries(ctx context.Context, employeeID string, from, to time.Time) ([]presence.DaySummary, error) {
	records, err := s.store.ListRecordsInRange(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}

	out := make([]presence.DaySummary, 0, len(records))
	for _, rec := range records {
		out = append(out, s.aggregator.Summarize(rec, time.Time{}))
	}
	return out, nil
}
