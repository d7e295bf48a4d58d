package report

import "errors"

var (
	ErrInvalidWindow  = errors.New("window must be a positive number of days within the allowed maximum")
	ErrInvalidSortKey = errors.New("sort must be one of: entry, -entry")
	ErrInvalidDate    = errors.New("date must be in YYYY-MM-DD format")
	ErrForbidden      = errors.New("not allowed to view this report")
)
