package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pumpx-core/internal/domain"
	"pumpx-core/internal/observability"
	"pumpx-core/internal/storage"
)

// FeeEventStore implements storage.FeeEventStore using ClickHouse.
// This is the analytics sink: daily trend queries run here instead of
// against the transactional Postgres tables.
type FeeEventStore struct {
	conn *Conn
	loc  *time.Location
}

// NewFeeEventStore creates a new FeeEventStore. The location defines
// the day boundary used for the day column.
func NewFeeEventStore(conn *Conn, loc *time.Location) *FeeEventStore {
	if loc == nil {
		loc = time.Local
	}
	return &FeeEventStore{conn: conn, loc: loc}
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

	query := `INSERT INTO fee_events (category, amount, participant, occurred_at, day)`

	batch, err := s.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare fee event batch: %w", err)
	}

	if err := batch.Append(
		string(e.Category),
		e.Amount,
		e.Participant,
		e.OccurredAt,
		domain.DayKey(e.OccurredAt, s.loc),
	); err != nil {
		return fmt.Errorf("append fee event: %w", err)
	}

	start := time.Now()
	err = batch.Send()
	observability.RecordDBQuery("clickhouse", "insert_fee_event", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send fee event batch: %w", err)
	}
	return nil
}

// GetByDay retrieves all events on the given local day, oldest first.
func (s *FeeEventStore) GetByDay(ctx context.Context, day string) ([]*domain.FeeEvent, error) {
	query := `
		SELECT category, amount, participant, occurred_at
		FROM fee_events
		WHERE day = ?
		ORDER BY occurred_at ASC
	`

	rows, err := s.conn.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("get fee events by day: %w", err)
	}
	defer rows.Close()

	var out []*domain.FeeEvent
	for rows.Next() {
		var (
			category string
			e        domain.FeeEvent
		)
		if err := rows.Scan(&category, &e.Amount, &e.Participant, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan fee event: %w", err)
		}
		e.Category = domain.FeeCategory(category)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee events: %w", err)
	}
	return out, nil
}

// GetRecent retrieves the most recent events, newest first.
func (s *FeeEventStore) GetRecent(ctx context.Context, limit int) ([]*domain.FeeEvent, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT category, amount, participant, occurred_at
		FROM fee_events
		ORDER BY occurred_at DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent fee events: %w", err)
	}
	defer rows.Close()

	var out []*domain.FeeEvent
	for rows.Next() {
		var (
			category string
			e        domain.FeeEvent
		)
		if err := rows.Scan(&category, &e.Amount, &e.Participant, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan fee event: %w", err)
		}
		e.Category = domain.FeeCategory(category)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee events: %w", err)
	}
	return out, nil
}

// GetDailyTotals aggregates fee amounts by category for one day.
func (s *FeeEventStore) GetDailyTotals(ctx context.Context, day string) (map[domain.FeeCategory]decimal.Decimal, error) {
	query := `
		SELECT category, CAST(sum(amount) AS Decimal(38, 18))
		FROM fee_events
		WHERE day = ?
		GROUP BY category
	`

	rows, err := s.conn.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("get daily totals: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.FeeCategory]decimal.Decimal)
	for rows.Next() {
		var (
			category string
			total    decimal.Decimal
		)
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		out[domain.FeeCategory(category)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return out, nil
}
