package memory

import (
	"context"
	"sync"
	"time"

	"pumpx-core/internal/domain"
	"pumpx-core/internal/storage"
)

// FeeEventStore is an in-memory implementation of storage.FeeEventStore.
// Events are kept in insertion order, which matches occurred_at order
// for the single-producer ledger path.
type FeeEventStore struct {
	mu     sync.RWMutex
	events []*domain.FeeEvent
	loc    *time.Location
}

// NewFeeEventStore creates a new in-memory fee event store. The
// location defines the day boundary used by GetByDay.
func NewFeeEventStore(loc *time.Location) *FeeEventStore {
	if loc == nil {
		loc = time.Local
	}
	return &FeeEventStore{loc: loc}
}

// Compile-time interface check.
var _ storage.FeeEventStore = (*FeeEventStore)(nil)

// Insert appends a fee event.
func (s *FeeEventStore) Insert(_ context.Context, e *domain.FeeEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}
	if err := e.Validate(); err != nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *e
	s.events = append(s.events, &clone)
	return nil
}

// GetByDay retrieves all events on the given local day, oldest first.
func (s *FeeEventStore) GetByDay(_ context.Context, day string) ([]*domain.FeeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.FeeEvent
	for _, e := range s.events {
		if domain.DayKey(e.OccurredAt, s.loc) == day {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

// GetRecent retrieves the most recent events, newest first.
func (s *FeeEventStore) GetRecent(_ context.Context, limit int) ([]*domain.FeeEvent, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.events)
	if limit > n {
		limit = n
	}

	out := make([]*domain.FeeEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		clone := *s.events[i]
		out = append(out, &clone)
	}
	return out, nil
}
