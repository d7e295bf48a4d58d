package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// maxTxAttempts is the first try plus one retry on conflict.
const maxTxAttempts = 2

type attendanceRecordRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRecordRepository(db *database.DB) presence.AttendanceRecordStore {
	return &attendanceRecordRepositoryImpl{db: db}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, presence.ErrStorage, err)
}

// WithinTx implements presence.AttendanceRecordStore.
func (r *attendanceRecordRepositoryImpl) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		var fnErr error
		err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
			fnErr = fn(ContextWithTx(ctx, tx))
			return fnErr
		})
		if err == nil {
			if attempt > 1 {
				metrics.IncConflict("retried")
			}
			return nil
		}
		if !isConflict(err) {
			if fnErr == nil {
				return storageErr("transaction", err)
			}
			return err
		}
	}

	metrics.IncConflict("surfaced")
	return presence.ErrConcurrencyConflict
}

// GetOrCreate implements presence.AttendanceRecordStore.
func (r *attendanceRecordRepositoryImpl) GetOrCreate(ctx context.Context, employeeID string, date time.Time) (presence.AttendanceRecord, bool, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return presence.AttendanceRecord{}, false, storageErr("generate record id", err)
	}

	insert := `
		INSERT INTO attendance_records (id, employee_id, date)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id, date) DO NOTHING
		RETURNING id, employee_id, date, created_at
	`

	var rec presence.AttendanceRecord
	err = q.QueryRow(ctx, insert, id, employeeID, date).Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CreatedAt)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return presence.AttendanceRecord{}, false, storageErr("insert attendance record", err)
	}

	query := `
		SELECT id, employee_id, date, created_at
		FROM attendance_records
		WHERE employee_id = $1 AND date = $2
	`
	err = q.QueryRow(ctx, query, employeeID, date).Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CreatedAt)
	if err != nil {
		return presence.AttendanceRecord{}, false, storageErr("get attendance record", err)
	}

	return rec, false, nil
}

// AppendInterval implements presence.AttendanceRecordStore.
func (r *attendanceRecordRepositoryImpl) AppendInterval(ctx context.Context, recordID string, start time.Time) (presence.ActivityInterval, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return presence.ActivityInterval{}, storageErr("generate interval id", err)
	}

	query := `
		INSERT INTO activity_intervals (id, attendance_record_id, start_time)
		VALUES ($1, $2, $3)
		RETURNING id, attendance_record_id, seq, start_time, end_time, closed_by_system, created_at
	`

	iv, err := scanInterval(q.QueryRow(ctx, query, id, recordID, start))
	if err != nil {
		return presence.ActivityInterval{}, storageErr("append interval", err)
	}
	return iv, nil
}

// CloseOpenInterval implements presence.AttendanceRecordStore.
func (r *attendanceRecordRepositoryImpl) CloseOpenInterval(ctx context.Context, recordID string, end time.Time) (*presence.ActivityInterval, error) {
	q := GetQuerier(ctx, r.db)

	// SKIP LOCKED makes a concurrent closer see no open interval instead of waiting.
	query := `
		UPDATE activity_intervals
		SET end_time = $2
		WHERE id = (
			SELECT id
			FROM activity_intervals
			WHERE attendance_record_id = $1
			  AND end_time IS NULL
			ORDER BY start_time, seq
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, attendance_record_id, seq, start_time, end_time, closed_by_system, created_at
	`

	iv, err := scanInterval(q.QueryRow(ctx, query, recordID, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr("close interval", err)
	}
	return &iv, nil
}

// ListIntervals implements presence.AttendanceRecordStore.
func (r *attendanceRecordRepositoryImpl) ListIntervals(ctx context.Context, recordID string) ([]presence.ActivityInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, attendance_record_id, seq, start_time, end_time, closed_by_system, created_at
		FROM activity_intervals
		WHERE attendance_record_id = $1
		ORDER BY start_time, seq
	`

	rows, err := q.Query(ctx, query, recordID)
	if err != nil {
		return nil, storageErr("list intervals", err)
	}
	defer rows.Close()

	var out []presence.ActivityInterval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, storageErr("scan interval", err)
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list intervals", err)
	}
	return out, nil
}

// ListRecordsInRange implements presence.AttendanceRecordStore.
func (r *attendanceRecordRepositoryImpl) ListRecordsInRange(ctx context.Context, employeeID string, from, to time.Time) ([]presence.AttendanceRecord, error) {
	query := `
		SELECT id, employee_id, date, created_at
		FROM attendance_records
		WHERE employee_id = $1
		  AND date BETWEEN $2 AND $3
		ORDER BY date
	`
	return r.listRecords(ctx, query, employeeID, from, to)
}

// ListRecordsByDate implements presence.AttendanceRecordStore.
func (r *attendanceRecordRepositoryImpl) ListRecordsByDate(ctx context.Context, date time.Time) ([]presence.AttendanceRecord, error) {
	query := `
		SELECT id, employee_id, date, created_at
		FROM attendance_records
		WHERE date = $1
		ORDER BY employee_id
	`
	return r.listRecords(ctx, query, date)
}

// CloseAllOpenIntervals implements presence.AttendanceRecordStore.
func (r *attendanceRecordRepositoryImpl) CloseAllOpenIntervals(ctx context.Context, end time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE activity_intervals
		SET end_time = $1, closed_by_system = TRUE
		WHERE end_time IS NULL
		  AND start_time <= $1
	`

	tag, err := q.Exec(ctx, query, end)
	if err != nil {
		return 0, storageErr("close open intervals", err)
	}
	return tag.RowsAffected(), nil
}

func (r *attendanceRecordRepositoryImpl) listRecords(ctx context.Context, query string, args ...any) ([]presence.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list attendance records", err)
	}

	var records []presence.AttendanceRecord
	for rows.Next() {
		var rec presence.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CreatedAt); err != nil {
			rows.Close()
			return nil, storageErr("scan attendance record", err)
		}
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageErr("list attendance records", err)
	}

	if len(records) == 0 {
		return records, nil
	}
	if err := r.preloadIntervals(ctx, q, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRecordRepositoryImpl) preloadIntervals(ctx context.Context, q database.Querier, records []presence.AttendanceRecord) error {
	ids := make([]string, len(records))
	index := make(map[string]int, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
		index[rec.ID] = i
	}

	query := `
		SELECT id, attendance_record_id, seq, start_time, end_time, closed_by_system, created_at
		FROM activity_intervals
		WHERE attendance_record_id = ANY($1)
		ORDER BY attendance_record_id, start_time, seq
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return storageErr("preload intervals", err)
	}
	defer rows.Close()

	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return storageErr("scan interval", err)
		}
		i := index[iv.AttendanceRecordID]
		records[i].Intervals = append(records[i].Intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return storageErr("preload intervals", err)
	}
	return nil
}

func scanInterval(row pgx.Row) (presence.ActivityInterval, error) {
	var iv presence.ActivityInterval
	err := row.Scan(&iv.ID, &iv.AttendanceRecordID, &iv.Seq, &iv.StartTime, &iv.EndTime, &iv.ClosedBySystem, &iv.CreatedAt)
	return iv, err
}
