package fine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	domainFine "github.com/cmlabs-hris/presence-backend-go/internal/domain/fine"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// TimeOfDay is a wall-clock time at minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses HH:MM.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if !validator.IsValidClock(s) {
		return TimeOfDay{}, domainFine.ErrInvalidCutoff
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, domainFine.ErrInvalidCutoff
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// CutoffRule sets the late cutoff for entries on or after EffectiveFrom.
type CutoffRule struct {
	EffectiveFrom time.Time
	Cutoff        TimeOfDay
}

// ParseCutoffSchedule parses "YYYY-MM-DD=HH:MM;YYYY-MM-DD=HH:MM".
func ParseCutoffSchedule(s string) ([]CutoffRule, error) {
	var rules []CutoffRule
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.Split(part, "=")
		if len(kv) != 2 {
			return nil, domainFine.ErrInvalidSchedule
		}
		from, ok := validator.IsValidDate(strings.TrimSpace(kv[0]))
		if !ok {
			return nil, domainFine.ErrInvalidSchedule
		}
		cutoff, err := ParseTimeOfDay(kv[1])
		if err != nil {
			return nil, domainFine.ErrInvalidSchedule
		}
		rules = append(rules, CutoffRule{EffectiveFrom: from, Cutoff: cutoff})
	}
	return rules, nil
}

// Tiers configures the fine ladder. Late days up to FreeLateDays cost nothing, days up to
// Tier2Limit cost Tier2Rate each, and every day beyond Tier2Limit costs Tier3Rate.
type Tiers struct {
	FreeLateDays int
	Tier2Limit   int
	Tier2Rate    decimal.Decimal
	Tier3Rate    decimal.Decimal
}

func DefaultTiers() Tiers {
	return Tiers{
		FreeLateDays: 3,
		Tier2Limit:   6,
		Tier2Rate:    decimal.NewFromInt(80),
		Tier3Rate:    decimal.NewFromInt(500),
	}
}

// DefaultCutoff is the late cutoff used when no schedule is configured.
var DefaultCutoff = TimeOfDay{Hour: 11, Minute: 10}

// Policy decides lateness and prices late counts.
type Policy struct {
	loc     *time.Location
	cutoffs []CutoffRule
	tiers   Tiers
}

// NewPolicy builds a policy. With no rules, DefaultCutoff applies to every date.
func NewPolicy(loc *time.Location, rules []CutoffRule, tiers Tiers) (*Policy, error) {
	if loc == nil {
		loc = time.UTC
	}
	if tiers.FreeLateDays < 0 || tiers.Tier2Limit < tiers.FreeLateDays ||
		tiers.Tier2Rate.IsNegative() || tiers.Tier3Rate.IsNegative() {
		return nil, domainFine.ErrInvalidTiers
	}

	sorted := make([]CutoffRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})

	return &Policy{loc: loc, cutoffs: sorted, tiers: tiers}, nil
}

// CutoffOn returns the cutoff in force on a calendar date.
func (p *Policy) CutoffOn(date time.Time) TimeOfDay {
	cutoff := DefaultCutoff
	if len(p.cutoffs) > 0 {
		cutoff = p.cutoffs[0].Cutoff
	}
	for _, rule := range p.cutoffs {
		if rule.EffectiveFrom.After(date) {
			break
		}
		cutoff = rule.Cutoff
	}
	return cutoff
}

// IsLate reports whether entry's local time of day is strictly after the cutoff.
// Seconds are ignored, so 11:10:59 is on time against an 11:10 cutoff.
func (p *Policy) IsLate(entry time.Time) bool {
	local := entry.In(p.loc)
	cutoff := p.CutoffOn(presence.DateOf(entry, p.loc))
	return local.Hour()*60+local.Minute() > cutoff.minutes()
}

// IsLateSummary applies IsLate to a summary's entry time. Days without entry are never late.
func (p *Policy) IsLateSummary(s *presence.DaySummary) bool {
	if s == nil || s.EntryTime == nil {
		return false
	}
	return p.IsLate(*s.EntryTime)
}

// Amount prices a monthly late count. Tiers add up, so the amount never decreases as the count grows.
func (p *Policy) Amount(lateCount int) decimal.Decimal {
	amount := decimal.Zero
	if lateCount > p.tiers.FreeLateDays {
		tier2Days := min(lateCount, p.tiers.Tier2Limit) - p.tiers.FreeLateDays
		amount = amount.Add(p.tiers.Tier2Rate.Mul(decimal.NewFromInt(int64(tier2Days))))
	}
	if lateCount > p.tiers.Tier2Limit {
		tier3Days := lateCount - p.tiers.Tier2Limit
		amount = amount.Add(p.tiers.Tier3Rate.Mul(decimal.NewFromInt(int64(tier3Days))))
	}
	return amount
}

// CountLate counts late summaries dated in the given month.
func (p *Policy) CountLate(summaries []presence.DaySummary, year int, month time.Month) int {
	count := 0
	for i := range summaries {
		s := &summaries[i]
		if s.Date.Year() != year || s.Date.Month() != month {
			continue
		}
		if p.IsLateSummary(s) {
			count++
		}
	}
	return count
}

// Monthly builds the fine record of emp for one month from the employee's day summaries.
// Exempt employees keep their late count and owe nothing.
func (p *Policy) Monthly(emp employee.Employee, summaries []presence.DaySummary, year int, month time.Month) domainFine.MonthlyFine {
	lateCount := p.CountLate(summaries, year, month)
	amount := p.Amount(lateCount)
	if emp.LateFineExempt {
		amount = decimal.Zero
	}
	return domainFine.MonthlyFine{
		EmployeeID: emp.ID,
		Year:       year,
		Month:      month,
		LateCount:  lateCount,
		Amount:     amount,
		Exempt:     emp.LateFineExempt,
	}
}

// MonthStart returns the first day of t's month as a calendar date.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month as a calendar date.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// TrendMonths returns the first days of reference-2, reference-1 and reference.
func TrendMonths(reference time.Time) []time.Time {
	ref := MonthStart(reference)
	return []time.Time{ref.AddDate(0, -2, 0), ref.AddDate(0, -1, 0), ref}
}
