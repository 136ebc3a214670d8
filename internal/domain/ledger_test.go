package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDayKey(t *testing.T) {
	utc := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)

	if got := DayKey(utc, time.UTC); got != "2025-03-01" {
		t.Errorf("DayKey in UTC: got %s, want 2025-03-01", got)
	}

	// Two hours east of UTC, 23:30 UTC is already the next day.
	east := time.FixedZone("EET", 2*3600)
	if got := DayKey(utc, east); got != "2025-03-02" {
		t.Errorf("DayKey in +02:00: got %s, want 2025-03-02", got)
	}
}

func TestNewLedgerState_Valid(t *testing.T) {
	s := NewLedgerState()
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("fresh state should satisfy invariants: %v", err)
	}
	if !s.LifetimeTotal.IsZero() {
		t.Errorf("fresh lifetime total: got %s, want 0", s.LifetimeTotal)
	}
	if len(s.ByCategory) != len(FeeCategories()) {
		t.Errorf("expected %d categories, got %d", len(FeeCategories()), len(s.ByCategory))
	}
}

func TestLedgerStateCheckInvariants_TotalMismatch(t *testing.T) {
	s := NewLedgerState()
	s.ByCategory[FeeCategoryTrading] = decimal.RequireFromString("0.05")
	// LifetimeTotal left at zero: sum no longer matches.
	if err := s.CheckInvariants(); err == nil {
		t.Error("expected invariant violation for mismatched lifetime total")
	}
}

func TestLedgerStateCheckInvariants_BucketMismatch(t *testing.T) {
	s := NewLedgerState()
	b := NewDailyBucket("2025-03-01")
	b.ByCategory[FeeCategoryCreation] = decimal.RequireFromString("0.01")
	// Total left at zero.
	s.DailyBuckets["2025-03-01"] = b
	if err := s.CheckInvariants(); err == nil {
		t.Error("expected invariant violation for bucket total mismatch")
	}
}

func TestLedgerStateCheckInvariants_KeyDateDisagreement(t *testing.T) {
	s := NewLedgerState()
	s.DailyBuckets["2025-03-01"] = NewDailyBucket("2025-03-02")
	if err := s.CheckInvariants(); err == nil {
		t.Error("expected invariant violation for key/date disagreement")
	}
}

func TestLedgerStateCheckInvariants_NegativeValue(t *testing.T) {
	s := NewLedgerState()
	s.ByCategory[FeeCategoryCreation] = decimal.NewFromInt(-1)
	s.LifetimeTotal = decimal.NewFromInt(-1)
	if err := s.CheckInvariants(); err == nil {
		t.Error("expected invariant violation for negative category total")
	}
}

func TestLedgerStateClone_Isolation(t *testing.T) {
	s := NewLedgerState()
	s.ByCategory[FeeCategoryTrading] = decimal.RequireFromString("0.06")
	s.LifetimeTotal = decimal.RequireFromString("0.06")
	b := NewDailyBucket("2025-03-01")
	b.ByCategory[FeeCategoryTrading] = decimal.RequireFromString("0.06")
	b.Total = decimal.RequireFromString("0.06")
	s.DailyBuckets["2025-03-01"] = b

	clone := s.Clone()
	clone.ByCategory[FeeCategoryTrading] = decimal.NewFromInt(99)
	clone.DailyBuckets["2025-03-01"].ByCategory[FeeCategoryTrading] = decimal.NewFromInt(99)

	if !s.ByCategory[FeeCategoryTrading].Equal(decimal.RequireFromString("0.06")) {
		t.Error("mutating clone changed original category total")
	}
	if !s.DailyBuckets["2025-03-01"].ByCategory[FeeCategoryTrading].Equal(decimal.RequireFromString("0.06")) {
		t.Error("mutating clone changed original bucket")
	}
}

func TestLedgerStateJSONRoundTrip(t *testing.T) {
	s := NewLedgerState()
	s.ByCategory[FeeCategoryCreation] = decimal.RequireFromString("0.01")
	s.ByCategory[FeeCategoryTrading] = decimal.RequireFromString("0.123456789")
	s.LifetimeTotal = decimal.RequireFromString("0.133456789")
	b := NewDailyBucket("2025-03-01")
	b.ByCategory[FeeCategoryCreation] = decimal.RequireFromString("0.01")
	b.ByCategory[FeeCategoryTrading] = decimal.RequireFromString("0.123456789")
	b.Total = decimal.RequireFromString("0.133456789")
	s.DailyBuckets["2025-03-01"] = b

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var restored LedgerState
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if err := restored.CheckInvariants(); err != nil {
		t.Fatalf("restored state violates invariants: %v", err)
	}
	if !restored.LifetimeTotal.Equal(s.LifetimeTotal) {
		t.Errorf("lifetime total drifted: got %s, want %s", restored.LifetimeTotal, s.LifetimeTotal)
	}
	got := restored.DailyBuckets["2025-03-01"].ByCategory[FeeCategoryTrading]
	if !got.Equal(decimal.RequireFromString("0.123456789")) {
		t.Errorf("bucket value drifted: got %s", got)
	}
}
