package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
)

// Aggregator derives per-day durations from activity intervals.
// Calendar-day comparisons happen in the attendance location.
type Aggregator struct {
	loc *time.Location
}

func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{loc: loc}
}

// Location returns the attendance location used for calendar days.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Summarize aggregates a record's intervals and stamps the record date on the summary.
func (a *Aggregator) Summarize(record presence.AttendanceRecord, now time.Time) presence.DaySummary {
	summary := a.Aggregate(record.Intervals, now)
	summary.Date = record.Date
	return summary
}

// Aggregate computes entry/exit times, time inside the office and break time.
//
// Open intervals count up to now. Break time only counts gaps whose two ends fall on the
// same calendar day; a gap spanning midnight contributes nothing. The result depends only
// on the inputs, so callers pass one now per report.
func (a *Aggregator) Aggregate(intervals []presence.ActivityInterval, now time.Time) presence.DaySummary {
	if len(intervals) == 0 {
		return presence.DaySummary{}
	}

	ordered := make([]presence.ActivityInterval, len(intervals))
	copy(ordered, intervals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})

	first, last := ordered[0], ordered[len(ordered)-1]
	entry := first.StartTime
	summary := presence.DaySummary{
		EntryTime:      &entry,
		IsOpenEnded:    last.IsOpen(),
		ClosedBySystem: last.ClosedBySystem,
	}
	if last.EndTime != nil {
		exit := *last.EndTime
		summary.ExitTime = &exit
	}

	for _, iv := range ordered {
		if iv.EndTime != nil && iv.EndTime.Before(iv.StartTime) {
			summary.Anomalous = true
			return summary
		}
	}

	for _, iv := range ordered {
		end := now
		if iv.EndTime != nil {
			end = *iv.EndTime
		}
		if d := end.Sub(iv.StartTime); d > 0 {
			summary.InsideOffice += d
		}
	}

	for i := 0; i < len(ordered)-1; i++ {
		end := ordered[i].EndTime
		next := ordered[i+1].StartTime
		if end == nil || !presence.SameDay(*end, next, a.loc) {
			continue
		}
		// overlapping intervals leave no gap
		if gap := next.Sub(*end); gap > 0 {
			summary.Break += gap
		}
	}

	return summary
}

// IsOnline reports whether any interval is still open.
func IsOnline(intervals []presence.ActivityInterval) bool {
	for _, iv := range intervals {
		if iv.IsOpen() {
			return true
		}
	}
	return false
}
