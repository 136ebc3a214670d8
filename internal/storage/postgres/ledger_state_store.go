package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pumpx-core/internal/domain"
	"pumpx-core/internal/observability"
	"pumpx-core/internal/storage"
)

// LedgerStateStore implements storage.LedgerStateStore using PostgreSQL.
// The whole ledger state is one JSONB document in a single-row table,
// replaced atomically on every save.
type LedgerStateStore struct {
	pool *Pool
}

// NewLedgerStateStore creates a new LedgerStateStore.
func NewLedgerStateStore(pool *Pool) *LedgerStateStore {
	return &LedgerStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LedgerStateStore = (*LedgerStateStore)(nil)

// Save writes the complete ledger state, replacing any prior document.
func (s *LedgerStateStore) Save(ctx context.Context, state *domain.LedgerState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal ledger state: %w", err)
	}

	query := `
		INSERT INTO ledger_state (id, state, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()
	`

	start := time.Now()
	_, err = s.pool.Exec(ctx, query, doc)
	observability.RecordDBQuery("postgres", "save_ledger_state", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("save ledger state: %w", err)
	}
	return nil
}

// Load retrieves the persisted state. Returns ErrNotFound if nothing
// has been persisted yet.
func (s *LedgerStateStore) Load(ctx context.Context) (*domain.LedgerState, error) {
	query := `SELECT state FROM ledger_state WHERE id = 1`

	var doc []byte
	start := time.Now()
	err := s.pool.QueryRow(ctx, query).Scan(&doc)
	observability.RecordDBQuery("postgres", "load_ledger_state", time.Since(start).Seconds(), err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("load ledger state: %w", err)
	}

	var state domain.LedgerState
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("unmarshal ledger state: %w", err)
	}
	return &state, nil
}
