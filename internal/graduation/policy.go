// Package graduation decides when a token leaves its bonding curve for
// open-market (DEX) trading. The check is poll-driven: callers evaluate
// a token's market cap against the threshold on their own schedule.
package graduation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"pumpx-core/internal/domain"
)

// ErrInvalidThreshold is returned for a non-positive market-cap threshold.
var ErrInvalidThreshold = errors.New("invalid graduation threshold")

// DefaultThreshold is the platform's launch graduation market cap.
var DefaultThreshold = decimal.NewFromInt(69_000)

var hundred = decimal.NewFromInt(100)

// Policy evaluates graduation eligibility. Pure: acting on the result
// (and emitting on-chain side effects) is the caller's responsibility.
type Policy struct{}

// NewPolicy creates a graduation policy.
func NewPolicy() *Policy {
	return &Policy{}
}

// Evaluate computes market cap = supply * unitPrice and compares it to
// the threshold. ProgressPct is clamped to 100.
func (p *Policy) Evaluate(c domain.CurveState, unitPrice, threshold decimal.Decimal) (domain.GraduationEvaluation, error) {
	if err := c.Validate(); err != nil {
		return domain.GraduationEvaluation{}, err
	}
	if unitPrice.IsNegative() {
		return domain.GraduationEvaluation{}, fmt.Errorf("unit price must be >= 0, got %s", unitPrice)
	}
	if !threshold.IsPositive() {
		return domain.GraduationEvaluation{}, fmt.Errorf("%w: got %s", ErrInvalidThreshold, threshold)
	}

	marketCap := c.CirculatingSupply.Mul(unitPrice)
	progress := decimal.Min(hundred, marketCap.Div(threshold).Mul(hundred))

	return domain.GraduationEvaluation{
		Eligible:    marketCap.GreaterThanOrEqual(threshold),
		MarketCap:   marketCap,
		Threshold:   threshold,
		ProgressPct: progress,
	}, nil
}
