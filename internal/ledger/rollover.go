package ledger

import (
	"context"
	"log"
	"os"
	"sync"
	"time"
)

// rolloverTimeout bounds the persist triggered by a scheduled rollover.
const rolloverTimeout = 30 * time.Second

// Clock abstracts wall time so the scheduler can be tested without
// waiting for real midnights.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the real wall clock.
var SystemClock Clock = systemClock{}

// nextMidnight returns the first midnight strictly after now in loc.
func nextMidnight(now time.Time, loc *time.Location) time.Time {
	t := now.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
}

// RolloverScheduler triggers a ledger rollover at every local midnight.
// The wait is recomputed from the clock after each run, so timer drift
// and suspend/resume cannot accumulate. Stop and Start may be called
// repeatedly; each Start after a Stop resumes from the current time.
type RolloverScheduler struct {
	ledger *Ledger
	clock  Clock
	loc    *time.Location
	logger *log.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRolloverScheduler creates a scheduler for the ledger's day
// boundary location. A nil clock means SystemClock.
func NewRolloverScheduler(l *Ledger, clock Clock, logger *log.Logger) *RolloverScheduler {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[rollover] ", log.LstdFlags|log.Lshortfile)
	}
	return &RolloverScheduler{
		ledger: l,
		clock:  clock,
		loc:    l.loc,
		logger: logger,
	}
}

// Start launches the scheduling loop. Calling Start on a running
// scheduler is a no-op.
func (s *RolloverScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(s.stopCh, s.doneCh)
}

// Stop halts the loop and waits for it to exit. Calling Stop on a
// stopped scheduler is a no-op.
func (s *RolloverScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.stopCh = nil
	s.doneCh = nil
}

func (s *RolloverScheduler) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		now := s.clock.Now()
		wait := nextMidnight(now, s.loc).Sub(now)
		timer := time.NewTimer(wait)

		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
			s.fire()
		}
	}
}

func (s *RolloverScheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), rolloverTimeout)
	defer cancel()

	pruned, err := s.ledger.Rollover(ctx, s.clock.Now())
	if err != nil {
		s.logger.Printf("ERROR: scheduled rollover failed: %v", err)
		return
	}
	if pruned > 0 {
		s.logger.Printf("scheduled rollover pruned %d buckets", pruned)
	}
}
