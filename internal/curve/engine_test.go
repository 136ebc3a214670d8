package curve

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"pumpx-core/internal/domain"
)

func testCurve() domain.CurveState {
	return domain.CurveState{
		TokenID:           "token1",
		CirculatingSupply: decimal.NewFromInt(1_000_000),
		CurveConstant:     decimal.RequireFromString("0.000001"),
	}
}

func TestQuoteBuy(t *testing.T) {
	engine := NewEngine()
	schedule := domain.DefaultFeeSchedule()

	// supply 1,000,000 * constant 0.000001 -> unit price exactly 1.
	quote, err := engine.QuoteBuy(testCurve(), decimal.NewFromInt(100), schedule)
	if err != nil {
		t.Fatalf("QuoteBuy failed: %v", err)
	}

	if !quote.UnitPrice.Equal(decimal.NewFromInt(1)) {
		t.Errorf("unit price: got %s, want 1", quote.UnitPrice)
	}
	if !quote.Cost.Equal(decimal.NewFromInt(100)) {
		t.Errorf("cost: got %s, want 100", quote.Cost)
	}
	if !quote.Fee.Equal(decimal.NewFromInt(1)) {
		t.Errorf("fee: got %s, want 1", quote.Fee)
	}
	if !quote.TotalCost.Equal(decimal.NewFromInt(101)) {
		t.Errorf("total cost: got %s, want 101", quote.TotalCost)
	}
}

func TestQuoteSell(t *testing.T) {
	engine := NewEngine()
	schedule := domain.DefaultFeeSchedule()

	quote, err := engine.QuoteSell(testCurve(), decimal.NewFromInt(100), schedule)
	if err != nil {
		t.Fatalf("QuoteSell failed: %v", err)
	}

	if !quote.Proceeds.Equal(decimal.NewFromInt(100)) {
		t.Errorf("proceeds: got %s, want 100", quote.Proceeds)
	}
	if !quote.Fee.Equal(decimal.NewFromInt(1)) {
		t.Errorf("fee: got %s, want 1", quote.Fee)
	}
	if !quote.NetProceeds.Equal(decimal.NewFromInt(99)) {
		t.Errorf("net proceeds: got %s, want 99", quote.NetProceeds)
	}
}

func TestQuote_Deterministic(t *testing.T) {
	engine := NewEngine()
	schedule := domain.DefaultFeeSchedule()
	amount := decimal.RequireFromString("123.456")

	first, err := engine.QuoteBuy(testCurve(), amount, schedule)
	if err != nil {
		t.Fatalf("first quote failed: %v", err)
	}
	second, err := engine.QuoteBuy(testCurve(), amount, schedule)
	if err != nil {
		t.Fatalf("second quote failed: %v", err)
	}

	if !first.TotalCost.Equal(second.TotalCost) || !first.Fee.Equal(second.Fee) {
		t.Errorf("identical inputs produced different quotes: %+v vs %+v", first, second)
	}
}

func TestRoundTripCost_EqualsBothFees(t *testing.T) {
	engine := NewEngine()
	schedule := domain.DefaultFeeSchedule()
	amount := decimal.RequireFromString("250.5")

	buy, err := engine.QuoteBuy(testCurve(), amount, schedule)
	if err != nil {
		t.Fatalf("QuoteBuy failed: %v", err)
	}
	sell, err := engine.QuoteSell(testCurve(), amount, schedule)
	if err != nil {
		t.Fatalf("QuoteSell failed: %v", err)
	}

	// Buying then immediately selling at the same curve state loses
	// exactly the two fees: no silent drift.
	loss := buy.TotalCost.Sub(sell.NetProceeds)
	wantLoss := buy.Fee.Add(sell.Fee)
	if !loss.Equal(wantLoss) {
		t.Errorf("round-trip loss: got %s, want %s", loss, wantLoss)
	}
}

func TestQuote_InvalidInputs(t *testing.T) {
	engine := NewEngine()
	schedule := domain.DefaultFeeSchedule()

	cases := []struct {
		name   string
		curve  domain.CurveState
		amount decimal.Decimal
	}{
		{"zero amount", testCurve(), decimal.Zero},
		{"negative amount", testCurve(), decimal.NewFromInt(-5)},
		{"negative supply", domain.CurveState{
			TokenID:           "token1",
			CirculatingSupply: decimal.NewFromInt(-1),
			CurveConstant:     decimal.RequireFromString("0.000001"),
		}, decimal.NewFromInt(10)},
		{"zero constant", domain.CurveState{
			TokenID:           "token1",
			CirculatingSupply: decimal.NewFromInt(100),
			CurveConstant:     decimal.Zero,
		}, decimal.NewFromInt(10)},
		{"missing token id", domain.CurveState{
			CirculatingSupply: decimal.NewFromInt(100),
			CurveConstant:     decimal.RequireFromString("0.000001"),
		}, decimal.NewFromInt(10)},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.QuoteBuy(tt.curve, tt.amount, schedule); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("QuoteBuy: expected ErrInvalidInput, got %v", err)
			}
			if _, err := engine.QuoteSell(tt.curve, tt.amount, schedule); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("QuoteSell: expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestQuote_ZeroSupplyIsFree(t *testing.T) {
	engine := NewEngine()
	c := testCurve()
	c.CirculatingSupply = decimal.Zero

	quote, err := engine.QuoteBuy(c, decimal.NewFromInt(10), domain.DefaultFeeSchedule())
	if err != nil {
		t.Fatalf("QuoteBuy at zero supply failed: %v", err)
	}
	if !quote.TotalCost.IsZero() {
		t.Errorf("total cost at zero supply: got %s, want 0", quote.TotalCost)
	}
}
