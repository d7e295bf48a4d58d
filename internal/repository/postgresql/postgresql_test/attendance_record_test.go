package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *TestDatabaseSetup

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		// Integration tests need a real database.
		os.Exit(0)
	}

	setup, err := NewTestDatabase(context.Background(), dsn)
	if err != nil {
		panic(err)
	}
	testDB = setup

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func setupTestData(t *testing.T) context.Context {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, testDB.TruncateAllTables(ctx))

	_, err := testDB.DB.Exec(ctx, `
		INSERT INTO employees (id, full_name, active, show_in_attendance_list, is_lead, late_fine_exempt)
		VALUES ('e1', 'Rahim', TRUE, TRUE, FALSE, FALSE),
		       ('e2', 'Karim', TRUE, FALSE, TRUE, TRUE),
		       ('e3', 'Former', FALSE, TRUE, FALSE, FALSE)
	`)
	require.NoError(t, err)
	return ctx
}

var day = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func TestGetOrCreate_SingleRecordPerDay(t *testing.T) {
	ctx := setupTestData(t)
	store := postgresql.NewAttendanceRecordRepository(testDB.DB)

	first, created, err := store.GetOrCreate(ctx, "e1", day)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := store.GetOrCreate(ctx, "e1", day)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Date.Equal(day))
}

func TestGetOrCreate_Concurrent(t *testing.T) {
	ctx := setupTestData(t)
	store := postgresql.NewAttendanceRecordRepository(testDB.DB)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]struct{}{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(ctx, func(ctx context.Context) error {
				rec, _, err := store.GetOrCreate(ctx, "e1", day)
				if err != nil {
					return err
				}
				mu.Lock()
				ids[rec.ID] = struct{}{}
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
}

func TestIntervals_AppendCloseList(t *testing.T) {
	ctx := setupTestData(t)
	store := postgresql.NewAttendanceRecordRepository(testDB.DB)

	rec, _, err := store.GetOrCreate(ctx, "e1", day)
	require.NoError(t, err)

	nine := day.Add(3 * time.Hour)
	_, err = store.AppendInterval(ctx, rec.ID, nine)
	require.NoError(t, err)
	_, err = store.AppendInterval(ctx, rec.ID, nine)
	require.NoError(t, err)

	closed, err := store.CloseOpenInterval(ctx, rec.ID, nine.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, closed)

	ivs, err := store.ListIntervals(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, ivs, 2)
	assert.Less(t, ivs[0].Seq, ivs[1].Seq)
	assert.Equal(t, closed.ID, ivs[0].ID)
	assert.True(t, ivs[1].IsOpen())

	_, err = store.CloseOpenInterval(ctx, rec.ID, nine.Add(2*time.Hour))
	require.NoError(t, err)
	none, err := store.CloseOpenInterval(ctx, rec.ID, nine.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCloseOpenInterval_ConcurrentClosersSucceedOnce(t *testing.T) {
	ctx := setupTestData(t)
	store := postgresql.NewAttendanceRecordRepository(testDB.DB)

	rec, _, err := store.GetOrCreate(ctx, "e1", day)
	require.NoError(t, err)
	_, err = store.AppendInterval(ctx, rec.ID, day.Add(3*time.Hour))
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		closes int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(ctx, func(ctx context.Context) error {
				iv, err := store.CloseOpenInterval(ctx, rec.ID, day.Add(8*time.Hour))
				if err != nil {
					return err
				}
				if iv != nil {
					mu.Lock()
					closes++
					mu.Unlock()
				}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, closes)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := setupTestData(t)
	store := postgresql.NewAttendanceRecordRepository(testDB.DB)

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		rec, _, err := store.GetOrCreate(ctx, "e1", day)
		if err != nil {
			return err
		}
		// A malformed record id fails inside the transaction.
		_, err = store.AppendInterval(ctx, rec.ID+"x", day)
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, presence.ErrStorage)

	records, err := store.ListRecordsInRange(ctx, "e1", day, day)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListRecords_PreloadsIntervals(t *testing.T) {
	ctx := setupTestData(t)
	store := postgresql.NewAttendanceRecordRepository(testDB.DB)

	for i, emp := range []string{"e1", "e2"} {
		rec, _, err := store.GetOrCreate(ctx, emp, day.AddDate(0, 0, -i))
		require.NoError(t, err)
		_, err = store.AppendInterval(ctx, rec.ID, day.AddDate(0, 0, -i).Add(4*time.Hour))
		require.NoError(t, err)
	}

	records, err := store.ListRecordsInRange(ctx, "e1", day.AddDate(0, 0, -7), day)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Intervals, 1)

	byDate, err := store.ListRecordsByDate(ctx, day.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "e2", byDate[0].EmployeeID)

	n, err := store.CloseAllOpenIntervals(ctx, day.Add(20*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	records, err = store.ListRecordsInRange(ctx, "e1", day, day)
	require.NoError(t, err)
	assert.True(t, records[0].Intervals[0].ClosedBySystem)
}

func TestEmployeeDirectory(t *testing.T) {
	ctx := setupTestData(t)
	dir := postgresql.NewEmployeeRepository(testDB.DB)

	e, err := dir.GetByID(ctx, "e2")
	require.NoError(t, err)
	assert.True(t, e.IsLead)
	assert.True(t, e.LateFineExempt)
	assert.False(t, e.ShowInAttendanceList)

	_, err = dir.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	active, err := dir.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "e1", active[0].ID)
}
