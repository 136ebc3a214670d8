package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DayKeyLayout is the calendar-date format used to key daily buckets.
const DayKeyLayout = "2006-01-02"

// DayKey returns the bucket key for t in the platform's local day boundary.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayKeyLayout)
}

// DailyBucket aggregates fee amounts for one calendar day.
// Invariant: Total equals the sum of all category subtotals.
type DailyBucket struct {
	Date       string                          `json:"date"`
	ByCategory map[FeeCategory]decimal.Decimal `json:"by_category"`
	Total      decimal.Decimal                 `json:"total"`
}

// NewDailyBucket returns an empty bucket for the given date key.
func NewDailyBucket(date string) DailyBucket {
	by := make(map[FeeCategory]decimal.Decimal, len(FeeCategories()))
	for _, c := range FeeCategories() {
		by[c] = decimal.Zero
	}
	return DailyBucket{Date: date, ByCategory: by, Total: decimal.Zero}
}

// Clone returns a deep copy of the bucket.
func (b DailyBucket) Clone() DailyBucket {
	out := DailyBucket{Date: b.Date, Total: b.Total}
	out.ByCategory = make(map[FeeCategory]decimal.Decimal, len(b.ByCategory))
	for c, v := range b.ByCategory {
		out.ByCategory[c] = v
	}
	return out
}

// CheckInvariants verifies the bucket's internal consistency.
func (b DailyBucket) CheckInvariants() error {
	if _, err := time.Parse(DayKeyLayout, b.Date); err != nil {
		return fmt.Errorf("bucket date %q is not a calendar date: %v", b.Date, err)
	}
	sum := decimal.Zero
	for c, v := range b.ByCategory {
		if !c.Valid() {
			return fmt.Errorf("bucket %s holds unknown category %q", b.Date, string(c))
		}
		if v.IsNegative() {
			return fmt.Errorf("bucket %s category %s is negative: %s", b.Date, c, v)
		}
		sum = sum.Add(v)
	}
	if !b.Total.Equal(sum) {
		return fmt.Errorf("bucket %s total %s != category sum %s", b.Date, b.Total, sum)
	}
	return nil
}

// LedgerState is the full persisted ledger document. It round-trips
// exactly through snapshot/restore as a single JSON document.
type LedgerState struct {
	LifetimeTotal decimal.Decimal                 `json:"lifetime_total"`
	ByCategory    map[FeeCategory]decimal.Decimal `json:"by_category"`
	DailyBuckets  map[string]DailyBucket          `json:"daily_buckets"`
}

// NewLedgerState returns an empty, valid ledger state.
func NewLedgerState() *LedgerState {
	by := make(map[FeeCategory]decimal.Decimal, len(FeeCategories()))
	for _, c := range FeeCategories() {
		by[c] = decimal.Zero
	}
	return &LedgerState{
		LifetimeTotal: decimal.Zero,
		ByCategory:    by,
		DailyBuckets:  make(map[string]DailyBucket),
	}
}

// Clone returns a deep copy of the state.
func (s *LedgerState) Clone() *LedgerState {
	out := &LedgerState{
		LifetimeTotal: s.LifetimeTotal,
		ByCategory:    make(map[FeeCategory]decimal.Decimal, len(s.ByCategory)),
		DailyBuckets:  make(map[string]DailyBucket, len(s.DailyBuckets)),
	}
	for c, v := range s.ByCategory {
		out.ByCategory[c] = v
	}
	for d, b := range s.DailyBuckets {
		out.DailyBuckets[d] = b.Clone()
	}
	return out
}

// CheckInvariants verifies full-state consistency:
// lifetime total equals the category sum, nothing is negative, and
// every bucket is internally consistent under its own date key.
func (s *LedgerState) CheckInvariants() error {
	sum := decimal.Zero
	for c, v := range s.ByCategory {
		if !c.Valid() {
			return fmt.Errorf("unknown lifetime category %q", string(c))
		}
		if v.IsNegative() {
			return fmt.Errorf("lifetime category %s is negative: %s", c, v)
		}
		sum = sum.Add(v)
	}
	if !s.LifetimeTotal.Equal(sum) {
		return fmt.Errorf("lifetime total %s != category sum %s", s.LifetimeTotal, sum)
	}
	for date, bucket := range s.DailyBuckets {
		if bucket.Date != date {
			return fmt.Errorf("bucket keyed %q carries date %q", date, bucket.Date)
		}
		if err := bucket.CheckInvariants(); err != nil {
			return err
		}
	}
	return nil
}

// ProfitUpdate is emitted to subscribers after every successful record.
type ProfitUpdate struct {
	Category         FeeCategory     `json:"category"`
	Amount           decimal.Decimal `json:"amount"`
	NewLifetimeTotal decimal.Decimal `json:"new_lifetime_total"`
	OccurredAt       time.Time       `json:"occurred_at"`
}

// ReportRange selects the aggregation window of a profit report.
type ReportRange string

// Supported report ranges.
const (
	ReportRangeToday ReportRange = "today"
	ReportRangeWeek  ReportRange = "week"
	ReportRangeAll   ReportRange = "all"
)

// Valid reports whether r is a known report range.
func (r ReportRange) Valid() bool {
	switch r {
	case ReportRangeToday, ReportRangeWeek, ReportRangeAll:
		return true
	}
	return false
}

// Report is a read-only breakdown of platform profits for dashboards.
// Weekly always covers the last 7 calendar days oldest-first, with
// zeroed buckets standing in for days without recorded activity.
type Report struct {
	Range         ReportRange                     `json:"range"`
	GeneratedAt   time.Time                       `json:"generated_at"`
	LifetimeTotal decimal.Decimal                 `json:"lifetime_total"`
	ByCategory    map[FeeCategory]decimal.Decimal `json:"by_category"`
	Today         DailyBucket                     `json:"today"`
	Weekly        []DailyBucket                   `json:"weekly,omitempty"`

	// EstimatedDailyVolume back-computes today's trade volume from the
	// trading commission and the current rate (volume = commission / rate).
	EstimatedDailyVolume decimal.Decimal `json:"estimated_daily_volume"`
	Schedule             FeeSchedule     `json:"schedule"`
}
