package fine

import "errors"

var (
	ErrInvalidCutoff   = errors.New("late cutoff must be HH:MM")
	ErrInvalidSchedule = errors.New("late cutoff schedule must be YYYY-MM-DD=HH:MM pairs separated by ';'")
	ErrInvalidTiers    = errors.New("fine tiers are inconsistent")
	ErrFineNotAllowed  = errors.New("not allowed to view fines of another employee")
)
