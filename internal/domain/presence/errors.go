package presence

import "errors"

var (
	ErrConcurrencyConflict = errors.New("concurrent presence update, please retry")
	ErrStorage             = errors.New("attendance storage unavailable")
	ErrRecordNotFound      = errors.New("attendance record not found")
	ErrToggleNotAllowed    = errors.New("not allowed to change presence of another employee")
)
