package presence

import (
	"context"
	"time"
)

// AttendanceRecordStore owns AttendanceRecord and ActivityInterval rows.
// Every other component only reads through it.
type AttendanceRecordStore interface {
	// WithinTx runs fn in a single transaction. Store calls made with the ctx passed to fn
	// join that transaction. Conflicts are retried once before ErrConcurrencyConflict is returned.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// GetOrCreate returns the record for (employeeID, date), creating it if absent.
	// The bool result is true when this call created the record.
	GetOrCreate(ctx context.Context, employeeID string, date time.Time) (AttendanceRecord, bool, error)

	// AppendInterval opens a new interval starting at start.
	AppendInterval(ctx context.Context, recordID string, start time.Time) (ActivityInterval, error)

	// CloseOpenInterval closes the earliest open interval of the record.
	// It returns nil when no interval is open; a concurrent closer observes nil as well.
	CloseOpenInterval(ctx context.Context, recordID string, end time.Time) (*ActivityInterval, error)

	// ListIntervals returns intervals ordered by start time, ties by insertion order.
	ListIntervals(ctx context.Context, recordID string) ([]ActivityInterval, error)

	// ListRecordsInRange returns the employee's records with from <= date <= to, intervals preloaded,
	// ordered by date.
	ListRecordsInRange(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceRecord, error)

	// ListRecordsByDate returns every employee's record for one date, intervals preloaded.
	ListRecordsByDate(ctx context.Context, date time.Time) ([]AttendanceRecord, error)

	// CloseAllOpenIntervals closes every open interval at end, marking it as closed by the system.
	CloseAllOpenIntervals(ctx context.Context, end time.Time) (int64, error)
}
