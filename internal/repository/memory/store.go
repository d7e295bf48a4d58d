// Package memory keeps attendance data in process memory. It backs local development
// (STORAGE_DRIVER=memory) and service tests; data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/google/uuid"
)

type recordKey struct {
	employeeID string
	date       string
}

type txMarker struct{}

// Store is an AttendanceRecordStore guarded by mutexes. Transactions are serialised and roll back
// by restoring a snapshot taken when they began.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	records   map[string]presence.AttendanceRecord
	byKey     map[recordKey]string
	intervals map[string][]presence.ActivityInterval
	seq       int64

	faults map[string]error
}

var _ presence.AttendanceRecordStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		records:   make(map[string]presence.AttendanceRecord),
		byKey:     make(map[recordKey]string),
		intervals: make(map[string][]presence.ActivityInterval),
		faults:    make(map[string]error),
	}
}

// InjectFault makes the next call of op ("get_or_create", "append", "close") fail with err.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) takeFault(op string) error {
	err, ok := s.faults[op]
	if ok {
		delete(s.faults, op)
	}
	return err
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txMarker{}).(bool)
	return ok
}

type snapshot struct {
	records   map[string]presence.AttendanceRecord
	byKey     map[recordKey]string
	intervals map[string][]presence.ActivityInterval
	seq       int64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		records:   make(map[string]presence.AttendanceRecord, len(s.records)),
		byKey:     make(map[recordKey]string, len(s.byKey)),
		intervals: make(map[string][]presence.ActivityInterval, len(s.intervals)),
		seq:       s.seq,
	}
	for k, v := range s.records {
		snap.records[k] = v
	}
	for k, v := range s.byKey {
		snap.byKey[k] = v
	}
	for k, v := range s.intervals {
		snap.intervals[k] = append([]presence.ActivityInterval(nil), v...)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = snap.records
	s.byKey = snap.byKey
	s.intervals = snap.intervals
	s.seq = snap.seq
}

// WithinTx implements presence.AttendanceRecordStore.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// GetOrCreate implements presence.AttendanceRecordStore.
func (s *Store) GetOrCreate(ctx context.Context, employeeID string, date time.Time) (presence.AttendanceRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault("get_or_create"); err != nil {
		return presence.AttendanceRecord{}, false, fmt.Errorf("%w: %v", presence.ErrStorage, err)
	}

	key := recordKey{employeeID: employeeID, date: presence.FormatDate(date)}
	if id, ok := s.byKey[key]; ok {
		return s.records[id], false, nil
	}

	rec := presence.AttendanceRecord{
		ID:         uuid.Must(uuid.NewV7()).String(),
		EmployeeID: employeeID,
		Date:       time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt:  time.Now(),
	}
	s.records[rec.ID] = rec
	s.byKey[key] = rec.ID
	return rec, true, nil
}

// AppendInterval implements presence.AttendanceRecordStore.
func (s *Store) AppendInterval(ctx context.Context, recordID string, start time.Time) (presence.ActivityInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault("append"); err != nil {
		return presence.ActivityInterval{}, fmt.Errorf("%w: %v", presence.ErrStorage, err)
	}
	if _, ok := s.records[recordID]; !ok {
		return presence.ActivityInterval{}, presence.ErrRecordNotFound
	}

	s.seq++
	iv := presence.ActivityInterval{
		ID:                 uuid.Must(uuid.NewV7()).String(),
		AttendanceRecordID: recordID,
		Seq:                s.seq,
		StartTime:          start,
		CreatedAt:          time.Now(),
	}
	s.intervals[recordID] = append(s.intervals[recordID], iv)
	return iv, nil
}

// CloseOpenInterval implements presence.AttendanceRecordStore.
func (s *Store) CloseOpenInterval(ctx context.Context, recordID string, end time.Time) (*presence.ActivityInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault("close"); err != nil {
		return nil, fmt.Errorf("%w: %v", presence.ErrStorage, err)
	}

	ivs := sortedIntervals(s.intervals[recordID])
	for _, iv := range ivs {
		if !iv.IsOpen() {
			continue
		}
		closedAt := end
		iv.EndTime = &closedAt
		s.replaceInterval(recordID, iv)
		return &iv, nil
	}
	return nil, nil
}

// ListIntervals implements presence.AttendanceRecordStore.
func (s *Store) ListIntervals(ctx context.Context, recordID string) ([]presence.ActivityInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIntervals(s.intervals[recordID]), nil
}

// ListRecordsInRange implements presence.AttendanceRecordStore.
func (s *Store) ListRecordsInRange(ctx context.Context, employeeID string, from, to time.Time) ([]presence.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []presence.AttendanceRecord
	for _, rec := range s.records {
		if rec.EmployeeID != employeeID || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		rec.Intervals = sortedIntervals(s.intervals[rec.ID])
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ListRecordsByDate implements presence.AttendanceRecordStore.
func (s *Store) ListRecordsByDate(ctx context.Context, date time.Time) ([]presence.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []presence.AttendanceRecord
	for _, rec := range s.records {
		if !rec.Date.Equal(date) {
			continue
		}
		rec.Intervals = sortedIntervals(s.intervals[rec.ID])
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// CloseAllOpenIntervals implements presence.AttendanceRecordStore.
func (s *Store) CloseAllOpenIntervals(ctx context.Context, end time.Time) (int64, error) {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var closed int64
	for recordID, ivs := range s.intervals {
		for i := range ivs {
			if !ivs[i].IsOpen() || ivs[i].StartTime.After(end) {
				continue
			}
			closedAt := end
			ivs[i].EndTime = &closedAt
			ivs[i].ClosedBySystem = true
			closed++
		}
		s.intervals[recordID] = ivs
	}
	return closed, nil
}

// Seed stores a record with its intervals as-is. It is meant for fixtures and imports.
func (s *Store) Seed(rec presence.AttendanceRecord) presence.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.Must(uuid.NewV7()).String()
	}
	ivs := rec.Intervals
	rec.Intervals = nil
	s.records[rec.ID] = rec
	s.byKey[recordKey{employeeID: rec.EmployeeID, date: presence.FormatDate(rec.Date)}] = rec.ID
	for _, iv := range ivs {
		s.seq++
		if iv.ID == "" {
			iv.ID = uuid.Must(uuid.NewV7()).String()
		}
		iv.AttendanceRecordID = rec.ID
		iv.Seq = s.seq
		s.intervals[rec.ID] = append(s.intervals[rec.ID], iv)
	}
	rec.Intervals = sortedIntervals(s.intervals[rec.ID])
	return rec
}

func (s *Store) replaceInterval(recordID string, iv presence.ActivityInterval) {
	ivs := s.intervals[recordID]
	for i := range ivs {
		if ivs[i].ID == iv.ID {
			ivs[i] = iv
			return
		}
	}
}

func sortedIntervals(ivs []presence.ActivityInterval) []presence.ActivityInterval {
	out := append([]presence.ActivityInterval(nil), ivs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
