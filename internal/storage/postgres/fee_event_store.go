package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pumpx-core/internal/domain"
	"pumpx-core/internal/storage"
)

// FeeEventStore implements storage.FeeEventStore using PostgreSQL.
// Append-only: events are never updated or deleted.
type FeeEventStore struct {
	pool *Pool
	loc  *time.Location
}

// NewFeeEventStore creates a new FeeEventStore. The location defines
// the day boundary used for the day column.
func NewFeeEventStore(pool *Pool, loc *time.Location) *FeeEventStore {
	if loc == nil {
		loc = time.Local
	}
	return &FeeEventStore{pool: pool, loc: loc}
}

// Compile-time interface check.
var _ storage.FeeEventStore = (*FeeEventStore)(nil)

// Insert appends a fee event.
func (s *FeeEventStore) Insert(ctx context.Context, e *domain.FeeEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}
	if err := e.Validate(); err != nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO fee_events (category, amount, participant, occurred_at, day)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		string(e.Category),
		e.Amount.String(),
		e.Participant,
		e.OccurredAt,
		domain.DayKey(e.OccurredAt, s.loc),
	)
	if err != nil {
		return fmt.Errorf("insert fee event: %w", err)
	}
	return nil
}

// GetByDay retrieves all events on the given local day, oldest first.
func (s *FeeEventStore) GetByDay(ctx context.Context, day string) ([]*domain.FeeEvent, error) {
	query := `
		SELECT category, amount::text, participant, occurred_at
		FROM fee_events
		WHERE day = $1
		ORDER BY occurred_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("get fee events by day: %w", err)
	}
	defer rows.Close()

	return scanFeeEvents(rows)
}

// GetRecent retrieves the most recent events, newest first.
func (s *FeeEventStore) GetRecent(ctx context.Context, limit int) ([]*domain.FeeEvent, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT category, amount::text, participant, occurred_at
		FROM fee_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent fee events: %w", err)
	}
	defer rows.Close()

	return scanFeeEvents(rows)
}

// scanFeeEvents scans rows into fee events. Amounts travel as NUMERIC
// text to avoid binary float conversion.
func scanFeeEvents(rows pgx.Rows) ([]*domain.FeeEvent, error) {
	var out []*domain.FeeEvent
	for rows.Next() {
		var (
			category  string
			amountStr string
			e         domain.FeeEvent
		)
		if err := rows.Scan(&category, &amountStr, &e.Participant, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan fee event: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parse fee amount %q: %w", amountStr, err)
		}
		e.Category = domain.FeeCategory(category)
		e.Amount = amount
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee events: %w", err)
	}
	return out, nil
}
