package storage

import (
	"context"

	"pumpx-core/internal/domain"
)

// LedgerStateStore persists the ledger's full state as a single
// document. Save must be durable before it returns: the ledger rolls
// back its in-memory totals when Save fails.
type LedgerStateStore interface {
	// Save writes the complete ledger state, replacing any prior document.
	Save(ctx context.Context, state *domain.LedgerState) error

	// Load retrieves the persisted state. Returns ErrNotFound if nothing
	// has been persisted yet.
	Load(ctx context.Context) (*domain.LedgerState, error)
}

// FeeEventStore is an append-only analytics log of individual fee
// events. It backs the dashboard's recent-transactions panel and daily
// trend queries; the ledger's accounting never reads from it.
type FeeEventStore interface {
	// Insert appends a fee event.
	Insert(ctx context.Context, e *domain.FeeEvent) error

	// GetByDay retrieves all events whose local day matches the given
	// day key (YYYY-MM-DD), ordered by occurred_at ASC.
	GetByDay(ctx context.Context, day string) ([]*domain.FeeEvent, error)

	// GetRecent retrieves the most recent events, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.FeeEvent, error)
}
