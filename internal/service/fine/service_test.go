package fine

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/presence-backend-go/internal/service/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEntry(store *memory.Store, employeeID string, local time.Time) {
	end := local.Add(6 * time.Hour)
	store.Seed(presence.AttendanceRecord{
		EmployeeID: employeeID,
		Date:       presence.DateOf(local, dhaka),
		Intervals: []presence.ActivityInterval{
			{StartTime: local, EndTime: &end},
		},
	})
}

func newTestFineService(t *testing.T, store *memory.Store) *FineServiceImpl {
	t.Helper()
	dir := memory.NewDirectory(
		employee.Employee{ID: "e1", FullName: "Rahim", Active: true, ShowInAttendanceList: true},
		employee.Employee{ID: "e2", FullName: "Karim", Active: true, ShowInAttendanceList: true, LateFineExempt: true},
	)
	svc := NewFineService(store, dir, attendance.NewAggregator(dhaka), newTestPolicy(t, nil))
	return svc.(*FineServiceImpl)
}

func TestComputeMonthlyFine(t *testing.T) {
	store := memory.NewStore()
	for day := 3; day <= 9; day++ {
		seedEntry(store, "e1", time.Date(2024, 6, day, 11, 45, 0, 0, dhaka))
	}
	seedEntry(store, "e1", time.Date(2024, 6, 10, 9, 0, 0, 0, dhaka))
	seedEntry(store, "e1", time.Date(2024, 7, 1, 12, 0, 0, 0, dhaka))

	svc := newTestFineService(t, store)

	got, err := svc.ComputeMonthlyFine(context.Background(), "e1", 2024, time.June)
	require.NoError(t, err)
	assert.Equal(t, 7, got.LateCount)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(740)), got.Amount.String())
}

func TestComputeMonthlyFine_UnknownEmployee(t *testing.T) {
	svc := newTestFineService(t, memory.NewStore())

	_, err := svc.ComputeMonthlyFine(context.Background(), "ghost", 2024, time.June)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestTrendSummary_AcrossYear(t *testing.T) {
	store := memory.NewStore()
	for day := 2; day <= 6; day++ {
		seedEntry(store, "e1", time.Date(2024, 12, day, 12, 0, 0, 0, dhaka))
	}
	seedEntry(store, "e1", time.Date(2025, 2, 3, 12, 0, 0, 0, dhaka))

	svc := newTestFineService(t, store)

	trend, err := svc.TrendSummary(context.Background(), "e1", time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, trend, 3)

	assert.Equal(t, 2024, trend[0].Year)
	assert.Equal(t, time.December, trend[0].Month)
	assert.Equal(t, 5, trend[0].LateCount)
	assert.True(t, trend[0].Amount.Equal(decimal.NewFromInt(160)))

	assert.Equal(t, time.January, trend[1].Month)
	assert.Equal(t, 0, trend[1].LateCount)

	assert.Equal(t, time.February, trend[2].Month)
	assert.Equal(t, 1, trend[2].LateCount)
	assert.True(t, trend[2].Amount.IsZero())
}

func TestTrendSummary_ExemptEmployee(t *testing.T) {
	store := memory.NewStore()
	for day := 2; day <= 10; day++ {
		seedEntry(store, "e2", time.Date(2024, 6, day, 12, 0, 0, 0, dhaka))
	}

	svc := newTestFineService(t, store)

	trend, err := svc.TrendSummary(context.Background(), "e2", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 9, trend[2].LateCount)
	assert.True(t, trend[2].Amount.IsZero())
}
