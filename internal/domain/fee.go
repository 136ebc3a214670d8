// Package domain defines the core types of the platform profit ledger:
// fee schedules, fee events, daily buckets, bonding-curve state and
// graduation records. All monetary values use shopspring/decimal,
// never float64 for money.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FeeCategory identifies the source of a platform fee.
type FeeCategory string

// Fee categories collected by the platform.
const (
	FeeCategoryCreation   FeeCategory = "creation"
	FeeCategoryTrading    FeeCategory = "trading"
	FeeCategoryConversion FeeCategory = "conversion"
)

// FeeCategories lists all valid categories in stable order.
func FeeCategories() []FeeCategory {
	return []FeeCategory{FeeCategoryCreation, FeeCategoryTrading, FeeCategoryConversion}
}

// Valid reports whether c is a known fee category.
func (c FeeCategory) Valid() bool {
	switch c {
	case FeeCategoryCreation, FeeCategoryTrading, FeeCategoryConversion:
		return true
	}
	return false
}

// Validation errors for fee events and schedules.
var (
	// ErrInvalidAmount is returned when a fee amount is zero or negative.
	ErrInvalidAmount = errors.New("invalid amount: fee amount must be positive")

	// ErrUnknownCategory is returned for a fee category outside the known set.
	ErrUnknownCategory = errors.New("unknown fee category")

	// ErrInvalidSchedule is returned when a fee schedule fails validation.
	ErrInvalidSchedule = errors.New("invalid fee schedule")

	// ErrInvalidEvent is returned when a fee event is malformed.
	ErrInvalidEvent = errors.New("invalid fee event")
)

// FeeSchedule is an immutable snapshot of platform fee rates.
// Replacing a schedule is an atomic swap on the ledger; computations
// always use the snapshot they were handed, never a live global.
type FeeSchedule struct {
	CreationFee    decimal.Decimal `json:"creation_fee" yaml:"creation_fee"`       // flat, SOL
	TradingRate    decimal.Decimal `json:"trading_rate" yaml:"trading_rate"`       // fraction of trade value
	ConversionRate decimal.Decimal `json:"conversion_rate" yaml:"conversion_rate"` // fraction of converted value
	CreationReward decimal.Decimal `json:"creation_reward" yaml:"creation_reward"` // flat, PXP
}

// DefaultFeeSchedule returns the platform launch fee structure:
// 0.01 SOL creation fee, 1% trading commission, 0.5% conversion fee,
// 10 PXP creation reward.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		CreationFee:    decimal.RequireFromString("0.01"),
		TradingRate:    decimal.RequireFromString("0.01"),
		ConversionRate: decimal.RequireFromString("0.005"),
		CreationReward: decimal.NewFromInt(10),
	}
}

// Validate checks rate and fee bounds: rates in [0, 1], flat amounts >= 0.
func (s FeeSchedule) Validate() error {
	one := decimal.NewFromInt(1)
	for _, rate := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"trading_rate", s.TradingRate},
		{"conversion_rate", s.ConversionRate},
	} {
		if rate.value.IsNegative() || rate.value.GreaterThan(one) {
			return fmt.Errorf("%w: %s must be in [0, 1], got %s", ErrInvalidSchedule, rate.name, rate.value)
		}
	}
	if s.CreationFee.IsNegative() {
		return fmt.Errorf("%w: creation_fee must be >= 0, got %s", ErrInvalidSchedule, s.CreationFee)
	}
	if s.CreationReward.IsNegative() {
		return fmt.Errorf("%w: creation_reward must be >= 0, got %s", ErrInvalidSchedule, s.CreationReward)
	}
	return nil
}

// FeeEvent is a single confirmed platform fee, produced by a trade or
// creation collaborator. Immutable once constructed; consumed exactly
// once by the ledger. There is no deduplication key: a retried event
// after a persistence failure is safe only as an immediate retry of the
// same event.
type FeeEvent struct {
	Category    FeeCategory     `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Participant string          `json:"participant"` // wallet address of the paying user
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Validate rejects malformed events before they reach the ledger.
func (e FeeEvent) Validate() error {
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(e.Category))
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, e.Amount)
	}
	if e.Participant == "" {
		return fmt.Errorf("%w: participant is required", ErrInvalidEvent)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidEvent)
	}
	return nil
}
