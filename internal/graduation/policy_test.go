package graduation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"pumpx-core/internal/domain"
)

func TestEvaluate_AtThreshold(t *testing.T) {
	policy := NewPolicy()
	c := domain.CurveState{
		TokenID:           "token1",
		CirculatingSupply: decimal.NewFromInt(69_000),
		CurveConstant:     decimal.NewFromInt(1),
	}

	eval, err := policy.Evaluate(c, decimal.NewFromInt(1), decimal.NewFromInt(69_000))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !eval.Eligible {
		t.Error("market cap equal to threshold should be eligible")
	}
	if !eval.ProgressPct.Equal(decimal.NewFromInt(100)) {
		t.Errorf("progress: got %s, want 100", eval.ProgressPct)
	}
	if !eval.MarketCap.Equal(decimal.NewFromInt(69_000)) {
		t.Errorf("market cap: got %s, want 69000", eval.MarketCap)
	}
}

func TestEvaluate_BelowThreshold(t *testing.T) {
	policy := NewPolicy()
	c := domain.CurveState{
		TokenID:           "token1",
		CirculatingSupply: decimal.NewFromInt(34_500),
		CurveConstant:     decimal.NewFromInt(1),
	}

	eval, err := policy.Evaluate(c, decimal.NewFromInt(1), decimal.NewFromInt(69_000))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if eval.Eligible {
		t.Error("half the threshold should not be eligible")
	}
	if !eval.ProgressPct.Equal(decimal.NewFromInt(50)) {
		t.Errorf("progress: got %s, want 50", eval.ProgressPct)
	}
}

func TestEvaluate_ProgressClampedAt100(t *testing.T) {
	policy := NewPolicy()
	c := domain.CurveState{
		TokenID:           "token1",
		CirculatingSupply: decimal.NewFromInt(200_000),
		CurveConstant:     decimal.NewFromInt(1),
	}

	eval, err := policy.Evaluate(c, decimal.NewFromInt(1), decimal.NewFromInt(69_000))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !eval.ProgressPct.Equal(decimal.NewFromInt(100)) {
		t.Errorf("progress above threshold must clamp to 100, got %s", eval.ProgressPct)
	}
}

func TestEvaluate_InvalidThreshold(t *testing.T) {
	policy := NewPolicy()
	c := domain.CurveState{
		TokenID:           "token1",
		CirculatingSupply: decimal.NewFromInt(100),
		CurveConstant:     decimal.NewFromInt(1),
	}

	if _, err := policy.Evaluate(c, decimal.NewFromInt(1), decimal.Zero); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}
}
