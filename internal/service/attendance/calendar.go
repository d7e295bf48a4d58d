package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
)

// WindowDates returns the ascending dates today-(n-1) .. today.
func WindowDates(n int, today time.Time) []time.Time {
	if n <= 0 {
		return nil
	}
	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		dates[i] = today.AddDate(0, 0, i-(n-1))
	}
	return dates
}

// AlignToWindow maps an employee's sparse records onto a dense n-day window ending today.
//
// Every slot starts as a placeholder; records are placed by binary search over the sorted
// date list, so slots stay in calendar order however sparse or unordered the input is.
// Records of other employees and records outside the window are ignored.
func (a *Aggregator) AlignToWindow(employeeID string, n int, today time.Time, records []presence.AttendanceRecord, now time.Time) []presence.AlignedDay {
	dates := WindowDates(n, today)
	days := make([]presence.AlignedDay, len(dates))
	for i, d := range dates {
		days[i] = presence.AlignedDay{Date: d}
	}

	for _, rec := range records {
		if rec.EmployeeID != employeeID {
			continue
		}
		i := sort.Search(len(dates), func(i int) bool {
			return !dates[i].Before(rec.Date)
		})
		if i == len(dates) || !dates[i].Equal(rec.Date) {
			continue
		}
		summary := a.Summarize(rec, now)
		days[i] = presence.AlignedDay{Date: dates[i], Summary: &summary}
	}

	return days
}
