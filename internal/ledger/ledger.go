// Package ledger implements the platform profit ledger: lifetime and
// per-day fee totals with write-through persistence, subscriber
// notifications and daily rollover. All mutations are serialized; a
// failed persist rolls the in-memory state back before returning.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pumpx-core/internal/domain"
	"pumpx-core/internal/observability"
	"pumpx-core/internal/storage"
)

// subscriberBuffer is the channel depth per subscriber. Slow consumers
// lose updates rather than stall the ledger.
const subscriberBuffer = 16

// DefaultRetentionDays is how many calendar days of buckets survive a
// rollover, counting today.
const DefaultRetentionDays = 30

// Options configures a Ledger.
type Options struct {
	// Store persists the full ledger state. Required.
	Store storage.LedgerStateStore

	// Events receives individual fee events for analytics. Optional;
	// insert failures are logged, never surfaced to the caller.
	Events storage.FeeEventStore

	// Schedule is the initial fee schedule. Zero value means DefaultFeeSchedule.
	Schedule domain.FeeSchedule

	// Location defines the day boundary for bucketing. Defaults to time.Local.
	Location *time.Location

	// RetentionDays bounds how many daily buckets rollover keeps.
	// Defaults to DefaultRetentionDays.
	RetentionDays int

	Logger *log.Logger
}

// Ledger tracks platform profits. Safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	state    *domain.LedgerState
	schedule domain.FeeSchedule
	subs     map[int]chan domain.ProfitUpdate
	nextSub  int

	store     storage.LedgerStateStore
	events    storage.FeeEventStore
	loc       *time.Location
	retention int
	logger    *log.Logger
}

// New creates an empty ledger. Call Load to pick up persisted state.
func New(opts Options) (*Ledger, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("ledger: store is required")
	}
	schedule := opts.Schedule
	if schedule == (domain.FeeSchedule{}) {
		schedule = domain.DefaultFeeSchedule()
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	retention := opts.RetentionDays
	if retention <= 0 {
		retention = DefaultRetentionDays
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[ledger] ", log.LstdFlags|log.Lshortfile)
	}

	return &Ledger{
		state:     domain.NewLedgerState(),
		schedule:  schedule,
		subs:      make(map[int]chan domain.ProfitUpdate),
		store:     opts.Store,
		events:    opts.Events,
		loc:       loc,
		retention: retention,
		logger:    logger,
	}, nil
}

// Load replaces the in-memory state with the persisted document.
// A store with no document yet leaves the ledger empty. A document that
// violates the ledger invariants fails with ErrCorruptState.
func (l *Ledger) Load(ctx context.Context) error {
	state, err := l.store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := state.CheckInvariants(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	l.mu.Lock()
	l.state = state.Clone()
	l.mu.Unlock()
	return nil
}

// Record applies one fee event: lifetime total, category total and the
// event's daily bucket all grow by the amount, the new state is
// persisted, and subscribers are notified. On persist failure the
// in-memory state is unchanged and the error wraps ErrPersistence.
func (l *Ledger) Record(ctx context.Context, e domain.FeeEvent) (domain.ProfitUpdate, error) {
	if err := e.Validate(); err != nil {
		observability.RecordLedgerError("validate")
		return domain.ProfitUpdate{}, err
	}

	update, err := l.apply(ctx, e)
	if err != nil {
		return domain.ProfitUpdate{}, err
	}

	// The event sink is best-effort analytics and may sit on a slow
	// network path, so it runs outside the lock.
	if l.events != nil {
		if err := l.events.Insert(ctx, &e); err != nil {
			l.logger.Printf("WARN: fee event sink insert failed: %v", err)
		}
	}
	return update, nil
}

// apply folds the event into the ledger state under the lock and notifies
// subscribers.
func (l *Ledger) apply(ctx context.Context, e domain.FeeEvent) (domain.ProfitUpdate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.Clone()
	next.LifetimeTotal = next.LifetimeTotal.Add(e.Amount)
	next.ByCategory[e.Category] = next.ByCategory[e.Category].Add(e.Amount)

	day := domain.DayKey(e.OccurredAt, l.loc)
	bucket, ok := next.DailyBuckets[day]
	if !ok {
		bucket = domain.NewDailyBucket(day)
	}
	bucket.ByCategory[e.Category] = bucket.ByCategory[e.Category].Add(e.Amount)
	bucket.Total = bucket.Total.Add(e.Amount)
	next.DailyBuckets[day] = bucket

	if err := l.persist(ctx, next, "record"); err != nil {
		return domain.ProfitUpdate{}, err
	}
	l.state = next

	observability.RecordFee(string(e.Category), e.Amount.InexactFloat64(), next.LifetimeTotal.InexactFloat64())

	update := domain.ProfitUpdate{
		Category:         e.Category,
		Amount:           e.Amount,
		NewLifetimeTotal: next.LifetimeTotal,
		OccurredAt:       e.OccurredAt,
	}
	l.broadcast(update)
	return update, nil
}

// Rollover prunes daily buckets strictly older than the retention
// window, counting backwards from now's calendar day. The bucket
// exactly retention days old survives. Returns how many buckets were
// dropped. A persist failure leaves the state unchanged.
func (l *Ledger) Rollover(ctx context.Context, now time.Time) (int, error) {
	cutoff := domain.DayKey(now.AddDate(0, 0, -l.retention), l.loc)

	l.mu.Lock()
	defer l.mu.Unlock()

	var stale []string
	for day := range l.state.DailyBuckets {
		// Day keys are YYYY-MM-DD, so lexical order is chronological.
		if day < cutoff {
			stale = append(stale, day)
		}
	}
	if len(stale) == 0 {
		observability.RecordRollover(0)
		return 0, nil
	}

	next := l.state.Clone()
	for _, day := range stale {
		delete(next.DailyBuckets, day)
	}
	if err := l.persist(ctx, next, "rollover"); err != nil {
		return 0, err
	}
	l.state = next

	observability.RecordRollover(len(stale))
	l.logger.Printf("rollover pruned %d daily buckets older than %s", len(stale), cutoff)
	return len(stale), nil
}

// Report builds a profit breakdown for the given range as of now.
// The returned report shares no state with the ledger.
func (l *Ledger) Report(rng domain.ReportRange, now time.Time) (*domain.Report, error) {
	if !rng.Valid() {
		return nil, fmt.Errorf("%w: unknown report range %q", domain.ErrInvalidEvent, string(rng))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	today := domain.DayKey(now, l.loc)
	todayBucket, ok := l.state.DailyBuckets[today]
	if ok {
		todayBucket = todayBucket.Clone()
	} else {
		todayBucket = domain.NewDailyBucket(today)
	}

	report := &domain.Report{
		Range:         rng,
		GeneratedAt:   now,
		LifetimeTotal: l.state.LifetimeTotal,
		ByCategory:    cloneTotals(l.state.ByCategory),
		Today:         todayBucket,
		Schedule:      l.schedule,
	}

	if !l.schedule.TradingRate.IsZero() {
		report.EstimatedDailyVolume = todayBucket.ByCategory[domain.FeeCategoryTrading].Div(l.schedule.TradingRate)
	}

	if rng == domain.ReportRangeWeek || rng == domain.ReportRangeAll {
		report.Weekly = l.weeklyLocked(now)
	}
	return report, nil
}

// weeklyLocked returns the last 7 calendar days oldest-first, with
// zeroed buckets for days without activity. Caller holds l.mu.
func (l *Ledger) weeklyLocked(now time.Time) []domain.DailyBucket {
	out := make([]domain.DailyBucket, 0, 7)
	for i := 6; i >= 0; i-- {
		day := domain.DayKey(now.AddDate(0, 0, -i), l.loc)
		if bucket, ok := l.state.DailyBuckets[day]; ok {
			out = append(out, bucket.Clone())
		} else {
			out = append(out, domain.NewDailyBucket(day))
		}
	}
	return out
}

// Snapshot returns a deep copy of the full ledger state.
func (l *Ledger) Snapshot() *domain.LedgerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// Restore replaces the ledger state with a snapshot and persists it.
// A snapshot that violates the invariants is rejected with
// ErrCorruptState and the running state stays untouched.
func (l *Ledger) Restore(ctx context.Context, state *domain.LedgerState) error {
	if state == nil {
		return fmt.Errorf("%w: nil state", ErrCorruptState)
	}
	if err := state.CheckInvariants(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := state.Clone()
	if err := l.persist(ctx, next, "restore"); err != nil {
		return err
	}
	l.state = next
	return nil
}

// SetSchedule atomically swaps the fee schedule used by reports and
// future recordings. Already-recorded amounts are unaffected.
func (l *Ledger) SetSchedule(s domain.FeeSchedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.schedule = s
	l.mu.Unlock()
	return nil
}

// Schedule returns the current fee schedule snapshot.
func (l *Ledger) Schedule() domain.FeeSchedule {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.schedule
}

// Subscribe registers a profit update channel. Updates are dropped, not
// queued, when the subscriber falls behind. The returned cancel func
// unregisters and closes the channel; it is safe to call twice.
func (l *Ledger) Subscribe() (<-chan domain.ProfitUpdate, func()) {
	ch := make(chan domain.ProfitUpdate, subscriberBuffer)

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	observability.SetSubscribers(len(l.subs))
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			observability.SetSubscribers(len(l.subs))
			l.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// persist writes state through the backing store, mapping failures to
// ErrPersistence. Caller holds l.mu.
func (l *Ledger) persist(ctx context.Context, state *domain.LedgerState, op string) error {
	start := time.Now()
	err := l.store.Save(ctx, state)
	observability.RecordPersistLatency(time.Since(start).Seconds())
	if err != nil {
		observability.RecordLedgerError("persist")
		l.logger.Printf("ERROR: %s persist failed, keeping prior state: %v", op, err)
		return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
	}
	return nil
}

// broadcast fans an update out without blocking. Caller holds l.mu.
func (l *Ledger) broadcast(update domain.ProfitUpdate) {
	for _, ch := range l.subs {
		select {
		case ch <- update:
		default:
			observability.RecordUpdateDropped()
		}
	}
}

func cloneTotals(in map[domain.FeeCategory]decimal.Decimal) map[domain.FeeCategory]decimal.Decimal {
	out := make(map[domain.FeeCategory]decimal.Decimal, len(in))
	for c, v := range in {
		out[c] = v
	}
	return out
}
