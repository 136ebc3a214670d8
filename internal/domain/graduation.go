package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GraduationStatus is a token's lifecycle stage.
type GraduationStatus string

// Graduation states. The transition is one-directional:
// BONDING -> GRADUATED, never back.
const (
	GraduationStatusBonding   GraduationStatus = "BONDING"
	GraduationStatusGraduated GraduationStatus = "GRADUATED"
)

// GraduationRecord tracks a token's progress toward open-market trading.
type GraduationRecord struct {
	TokenID     string           `json:"token_id"`
	Status      GraduationStatus `json:"status"`
	GraduatedAt *time.Time       `json:"graduated_at,omitempty"`
}

// GraduationEvaluation is the outcome of a market-cap threshold check.
type GraduationEvaluation struct {
	Eligible    bool            `json:"eligible"`
	MarketCap   decimal.Decimal `json:"market_cap"`
	Threshold   decimal.Decimal `json:"threshold"`
	ProgressPct decimal.Decimal `json:"progress_pct"` // clamped to [0, 100]
}
