package posclient

import (
	"context"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
)

// OccupancyTimer reports how long a table has been occupied, once per tick.
// Each tick recomputes from the absolute occupied_at timestamp, so a missed
// or delayed tick never makes the figure drift.
type OccupancyTimer struct {
	occupiedAt time.Time
	interval   time.Duration
	now        func() time.Time
	onTick     func(elapsed time.Duration)
}

// NewOccupancyTimer returns a one-second timer for a table occupied at occupiedAt.
func NewOccupancyTimer(occupiedAt time.Time, onTick func(elapsed time.Duration)) *OccupancyTimer {
	return &OccupancyTimer{
		occupiedAt: occupiedAt,
		interval:   time.Second,
		now:        time.Now,
		onTick:     onTick,
	}
}

// TimerForTable builds a timer for an occupied table. It returns nil for a vacant one.
func TimerForTable(t models.Table, onTick func(elapsed time.Duration)) *OccupancyTimer {
	if t.Status != models.TableStatusOccupied || t.OccupiedAt == nil {
		return nil
	}
	return NewOccupancyTimer(*t.OccupiedAt, onTick)
}

// Elapsed is now minus occupied_at, never negative.
func (t *OccupancyTimer) Elapsed() time.Duration {
	if d := t.now().Sub(t.occupiedAt); d > 0 {
		return d
	}
	return 0
}

// Run reports immediately and then on every tick until ctx is done.
func (t *OccupancyTimer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.onTick(t.Elapsed())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.onTick(t.Elapsed())
		}
	}
}

// Start runs the timer on its own goroutine. The returned channel is closed
// once the goroutine has exited.
func (t *OccupancyTimer) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.Run(ctx)
	}()
	return done
}

// FormatElapsed renders d as HH:MM:SS. Hours keep counting past 99.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
