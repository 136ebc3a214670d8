// Package reporting renders profit reports as Markdown and CSV.
package reporting

import (
	"time"

	"pumpx-core/internal/domain"
	"pumpx-core/internal/ledger"
)

// Generator produces reports from the live ledger.
type Generator struct {
	ledger *ledger.Ledger
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(l *ledger.Ledger) *Generator {
	return &Generator{
		ledger: l,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a profit report for the given range.
func (g *Generator) Generate(rng domain.ReportRange) (*domain.Report, error) {
	return g.ledger.Report(rng, g.now())
}
