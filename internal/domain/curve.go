package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidCurveState is returned for malformed curve state.
var ErrInvalidCurveState = errors.New("invalid curve state")

// CurveState captures a token's position on its bonding curve.
// It is passed by value into the pricing engine, which never retains
// or mutates it; ownership stays with the token tracker.
type CurveState struct {
	TokenID           string          `json:"token_id"`
	CirculatingSupply decimal.Decimal `json:"circulating_supply"`
	CurveConstant     decimal.Decimal `json:"curve_constant"`
}

// Validate checks the state is quotable: supply >= 0, constant > 0.
func (c CurveState) Validate() error {
	if c.TokenID == "" {
		return fmt.Errorf("%w: token_id is required", ErrInvalidCurveState)
	}
	if c.CirculatingSupply.IsNegative() {
		return fmt.Errorf("%w: circulating supply must be >= 0, got %s", ErrInvalidCurveState, c.CirculatingSupply)
	}
	if !c.CurveConstant.IsPositive() {
		return fmt.Errorf("%w: curve constant must be > 0, got %s", ErrInvalidCurveState, c.CurveConstant)
	}
	return nil
}

// BuyQuote is the result of pricing a bonding-curve purchase.
type BuyQuote struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Cost      decimal.Decimal `json:"cost"`
	Fee       decimal.Decimal `json:"fee"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// SellQuote is the result of pricing a bonding-curve sale.
type SellQuote struct {
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Proceeds    decimal.Decimal `json:"proceeds"`
	Fee         decimal.Decimal `json:"fee"`
	NetProceeds decimal.Decimal `json:"net_proceeds"`
}
