package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindowDates(t *testing.T) {
	dates := WindowDates(5, date(2024, time.June, 10))

	require.Len(t, dates, 5)
	want := []time.Time{
		date(2024, time.June, 6),
		date(2024, time.June, 7),
		date(2024, time.June, 8),
		date(2024, time.June, 9),
		date(2024, time.June, 10),
	}
	assert.Equal(t, want, dates)
	assert.Nil(t, WindowDates(0, date(2024, time.June, 10)))
}

func TestWindowDates_CrossesMonthAndYear(t *testing.T) {
	dates := WindowDates(3, date(2024, time.January, 1))

	assert.Equal(t, []time.Time{date(2023, time.December, 30), date(2023, time.December, 31), date(2024, time.January, 1)}, dates)
}

func TestAlignToWindow_EmptyRecords(t *testing.T) {
	agg := NewAggregator(time.UTC)

	days := agg.AlignToWindow("emp-1", 5, date(2024, time.June, 10), nil, at(10, 12, 0))

	require.Len(t, days, 5)
	for i, d := range days {
		assert.Equal(t, date(2024, time.June, 6+i), d.Date)
		assert.Nil(t, d.Summary)
	}
}

func TestAlignToWindow_SparseUnorderedRecords(t *testing.T) {
	agg := NewAggregator(time.UTC)
	records := []presence.AttendanceRecord{
		{
			EmployeeID: "emp-1",
			Date:       date(2024, time.June, 9),
			Intervals:  []presence.ActivityInterval{closed(at(9, 9, 0), at(9, 17, 0))},
		},
		{
			EmployeeID: "emp-1",
			Date:       date(2024, time.June, 6),
			Intervals:  []presence.ActivityInterval{closed(at(6, 10, 0), at(6, 11, 0))},
		},
		{
			// outside the window
			EmployeeID: "emp-1",
			Date:       date(2024, time.June, 1),
			Intervals:  []presence.ActivityInterval{closed(at(1, 10, 0), at(1, 11, 0))},
		},
		{
			// another employee
			EmployeeID: "emp-2",
			Date:       date(2024, time.June, 8),
			Intervals:  []presence.ActivityInterval{closed(at(8, 10, 0), at(8, 11, 0))},
		},
	}

	days := agg.AlignToWindow("emp-1", 5, date(2024, time.June, 10), records, at(10, 12, 0))

	require.Len(t, days, 5)
	require.NotNil(t, days[0].Summary)
	assert.Equal(t, time.Hour, days[0].Summary.InsideOffice)
	assert.Nil(t, days[1].Summary)
	assert.Nil(t, days[2].Summary)
	require.NotNil(t, days[3].Summary)
	assert.Equal(t, 8*time.Hour, days[3].Summary.InsideOffice)
	assert.Equal(t, date(2024, time.June, 9), days[3].Summary.Date)
	assert.Nil(t, days[4].Summary)
}

func TestAlignToWindow_RecordWithoutIntervalsIsNotPlaceholder(t *testing.T) {
	agg := NewAggregator(time.UTC)
	records := []presence.AttendanceRecord{{EmployeeID: "emp-1", Date: date(2024, time.June, 10)}}

	days := agg.AlignToWindow("emp-1", 1, date(2024, time.June, 10), records, at(10, 12, 0))

	require.Len(t, days, 1)
	require.NotNil(t, days[0].Summary)
	assert.Zero(t, days[0].Summary.InsideOffice)
}
