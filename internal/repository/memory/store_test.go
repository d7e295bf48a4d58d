package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func TestStore_GetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]int{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, _, err := s.GetOrCreate(ctx, "e1", day)
			assert.NoError(t, err)
			mu.Lock()
			ids[rec.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
}

func TestStore_IntervalsOrderedByStartThenInsertion(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	rec, created, err := s.GetOrCreate(ctx, "e1", day)
	require.NoError(t, err)
	assert.True(t, created)

	late, err := s.AppendInterval(ctx, rec.ID, day.Add(13*time.Hour))
	require.NoError(t, err)
	first, err := s.AppendInterval(ctx, rec.ID, day.Add(9*time.Hour))
	require.NoError(t, err)
	tie, err := s.AppendInterval(ctx, rec.ID, day.Add(9*time.Hour))
	require.NoError(t, err)

	ivs, err := s.ListIntervals(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, ivs, 3)
	assert.Equal(t, []string{first.ID, tie.ID, late.ID}, []string{ivs[0].ID, ivs[1].ID, ivs[2].ID})

	closed, err := s.CloseOpenInterval(ctx, rec.ID, day.Add(10*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, first.ID, closed.ID)
}

func TestStore_AppendToUnknownRecord(t *testing.T) {
	_, err := NewStore().AppendInterval(context.Background(), "missing", day)
	assert.ErrorIs(t, err, presence.ErrRecordNotFound)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		rec, _, err := s.GetOrCreate(ctx, "e1", day)
		require.NoError(t, err)
		_, err = s.AppendInterval(ctx, rec.ID, day.Add(time.Hour))
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	records, err := s.ListRecordsByDate(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_InjectFaultFiresOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.InjectFault("get_or_create", errors.New("down"))

	_, _, err := s.GetOrCreate(ctx, "e1", day)
	assert.ErrorIs(t, err, presence.ErrStorage)

	_, _, err = s.GetOrCreate(ctx, "e1", day)
	assert.NoError(t, err)
}

func TestStore_ListRecordsInRange(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for _, d := range []int{-10, -3, 0, 1} {
		_, _, err := s.GetOrCreate(ctx, "e1", day.AddDate(0, 0, d))
		require.NoError(t, err)
	}
	_, _, err := s.GetOrCreate(ctx, "e2", day)
	require.NoError(t, err)

	records, err := s.ListRecordsInRange(ctx, "e1", day.AddDate(0, 0, -3), day)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Date.Equal(day.AddDate(0, 0, -3)))
	assert.True(t, records[1].Date.Equal(day))
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(
		employee.Employee{ID: "b", Active: true},
		employee.Employee{ID: "a", Active: true},
		employee.Employee{ID: "c", Active: false},
	)

	active, err := d.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "a", active[0].ID)

	_, err = d.GetByID(ctx, "zz")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	d.Put(employee.Employee{ID: "zz", FullName: "New"})
	e, err := d.GetByID(ctx, "zz")
	require.NoError(t, err)
	assert.Equal(t, "New", e.FullName)
}

func TestParseEmployees(t *testing.T) {
	emps, err := ParseEmployees([]string{"e1=Rahim Uddin", " e2 = Karim "})
	require.NoError(t, err)
	require.Len(t, emps, 2)
	assert.Equal(t, "Karim", emps[1].FullName)
	assert.True(t, emps[0].TrackedForAttendance())

	_, err = ParseEmployees([]string{"e3"})
	assert.Error(t, err)
}
