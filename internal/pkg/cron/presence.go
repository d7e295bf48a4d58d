package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/metrics"
)

const autoOfflineInterval = 5 * time.Minute

// PresenceJobs closes intervals people forgot to close.
type PresenceJobs struct {
	store presence.AttendanceRecordStore
	clock clock.Clock
	loc   *time.Location
	hour  int

	mu        sync.Mutex
	lastSwept time.Time
}

func NewPresenceJobs(store presence.AttendanceRecordStore, clk clock.Clock, loc *time.Location, hour int) *PresenceJobs {
	if clk == nil {
		clk = clock.System()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PresenceJobs{store: store, clock: clk, loc: loc, hour: hour}
}

func (j *PresenceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_offline_sweep", autoOfflineInterval, time.Minute, j.AutoOffline)
}

// AutoOffline closes every open interval once per day, during the configured local hour.
// Closed intervals are marked as closed by the system.
func (j *PresenceJobs) AutoOffline(ctx context.Context) error {
	now := j.clock.Now()
	if now.In(j.loc).Hour() != j.hour {
		return nil
	}

	today := presence.DateOf(now, j.loc)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastSwept.Equal(today) {
		return nil
	}

	slog.Info("Cron: Starting auto-offline sweep", "date", presence.FormatDate(today))

	closed, err := j.store.CloseAllOpenIntervals(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to close open intervals: %w", err)
	}

	j.lastSwept = today
	metrics.AddAutoClosed(closed)
	slog.Info("Cron: Auto-offline sweep completed", "closed_intervals", closed)
	return nil
}
