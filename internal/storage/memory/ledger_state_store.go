// Package memory provides in-memory storage implementations for tests
// and the --use-memory dev mode.
package memory

import (
	"context"
	"sync"

	"pumpx-core/internal/domain"
	"pumpx-core/internal/storage"
)

// LedgerStateStore is an in-memory implementation of storage.LedgerStateStore.
type LedgerStateStore struct {
	mu    sync.RWMutex
	state *domain.LedgerState
}

// NewLedgerStateStore creates a new in-memory ledger state store.
func NewLedgerStateStore() *LedgerStateStore {
	return &LedgerStateStore{}
}

// Compile-time interface check.
var _ storage.LedgerStateStore = (*LedgerStateStore)(nil)

// Save writes the complete ledger state, replacing any prior document.
func (s *LedgerStateStore) Save(_ context.Context, state *domain.LedgerState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state.Clone()
	return nil
}

// Load retrieves the persisted state. Returns ErrNotFound if Save was
// never called.
func (s *LedgerStateStore) Load(_ context.Context) (*domain.LedgerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, storage.ErrNotFound
	}
	return s.state.Clone(), nil
}
