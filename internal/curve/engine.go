// Package curve implements bonding-curve pricing for tokens that have
// not yet graduated to open-market trading.
//
// The platform uses a linear curve: unit price = circulating supply *
// curve constant. This is a deliberate simplification of the launch
// design, not general bonding-curve theory.
package curve

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"pumpx-core/internal/domain"
)

// ErrInvalidInput is returned for non-positive quantities or malformed
// curve state. The quote is not computed.
var ErrInvalidInput = errors.New("invalid input")

// Engine computes buy/sell quotes. It is stateless: callers pass the
// curve state and fee schedule explicitly, so identical inputs always
// produce identical quotes.
type Engine struct{}

// NewEngine creates a pricing engine.
func NewEngine() *Engine {
	return &Engine{}
}

// UnitPrice returns the instantaneous price at the curve's current supply.
func (e *Engine) UnitPrice(c domain.CurveState) decimal.Decimal {
	return c.CirculatingSupply.Mul(c.CurveConstant)
}

// QuoteBuy prices a purchase of amount tokens:
// cost = amount * unitPrice, fee = cost * trading rate,
// totalCost = cost + fee.
func (e *Engine) QuoteBuy(c domain.CurveState, amount decimal.Decimal, schedule domain.FeeSchedule) (domain.BuyQuote, error) {
	if err := e.validate(c, amount, schedule); err != nil {
		return domain.BuyQuote{}, err
	}

	unitPrice := e.UnitPrice(c)
	cost := amount.Mul(unitPrice)
	fee := cost.Mul(schedule.TradingRate)

	return domain.BuyQuote{
		UnitPrice: unitPrice,
		Cost:      cost,
		Fee:       fee,
		TotalCost: cost.Add(fee),
	}, nil
}

// QuoteSell prices a sale of amount tokens:
// proceeds = amount * unitPrice, fee = proceeds * trading rate,
// netProceeds = proceeds - fee.
func (e *Engine) QuoteSell(c domain.CurveState, amount decimal.Decimal, schedule domain.FeeSchedule) (domain.SellQuote, error) {
	if err := e.validate(c, amount, schedule); err != nil {
		return domain.SellQuote{}, err
	}

	unitPrice := e.UnitPrice(c)
	proceeds := amount.Mul(unitPrice)
	fee := proceeds.Mul(schedule.TradingRate)

	return domain.SellQuote{
		UnitPrice:   unitPrice,
		Proceeds:    proceeds,
		Fee:         fee,
		NetProceeds: proceeds.Sub(fee),
	}, nil
}

func (e *Engine) validate(c domain.CurveState, amount decimal.Decimal, schedule domain.FeeSchedule) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidInput, amount)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
