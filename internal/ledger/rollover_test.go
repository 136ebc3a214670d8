package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"pumpx-core/internal/storage/memory"
)

// fakeClock is a settable clock for scheduler tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func TestNextMidnight(t *testing.T) {
	chicago := time.FixedZone("CST", -6*3600)

	tests := []struct {
		name string
		now  time.Time
		loc  *time.Location
		want time.Time
	}{
		{
			"midday utc",
			time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC),
			time.UTC,
			time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			"exactly midnight rolls to next day",
			time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			time.UTC,
			time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			"one nanosecond before midnight",
			time.Date(2025, 6, 15, 23, 59, 59, 999999999, time.UTC),
			time.UTC,
			time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			"month boundary",
			time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC),
			time.UTC,
			time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"year boundary",
			time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC),
			time.UTC,
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"utc instant bucketed in local zone",
			time.Date(2025, 6, 16, 3, 0, 0, 0, time.UTC), // 21:00 on the 15th in CST
			chicago,
			time.Date(2025, 6, 16, 0, 0, 0, 0, chicago),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextMidnight(tt.now, tt.loc)
			if !got.Equal(tt.want) {
				t.Errorf("nextMidnight(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestSchedulerFiresAtMidnight(t *testing.T) {
	l, err := New(Options{Store: memory.NewLedgerStateStore(), Location: time.UTC})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	beforeMidnight := time.Date(2025, 6, 15, 23, 59, 59, int(950*time.Millisecond), time.UTC)
	if _, err := l.Record(ctx, tradingEvent("1", beforeMidnight.AddDate(0, 0, -45))); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := l.Record(ctx, tradingEvent("1", beforeMidnight)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	clock := &fakeClock{now: beforeMidnight}
	s := NewRolloverScheduler(l, clock, nil)
	s.Start()
	defer s.Stop()

	// Cross midnight so the rearm after firing waits a full day.
	clock.set(time.Date(2025, 6, 16, 0, 0, 1, 0, time.UTC))

	deadline := time.Now().Add(5 * time.Second)
	for len(l.Snapshot().DailyBuckets) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not prune the stale bucket")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerStopStartLifecycle(t *testing.T) {
	l, err := New(Options{Store: memory.NewLedgerStateStore(), Location: time.UTC})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	clock := &fakeClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	s := NewRolloverScheduler(l, clock, nil)

	s.Stop() // stopping before start is a no-op

	s.Start()
	s.Start() // double start is a no-op
	s.Stop()
	s.Stop() // double stop is a no-op

	// Restart after stop resumes scheduling.
	s.Start()
	s.Stop()
}
