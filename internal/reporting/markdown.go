package reporting

import (
	"fmt"
	"strings"
	"time"

	"pumpx-core/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *domain.Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Platform Profit Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Range: %s\n\n", r.Range))

	// Lifetime totals
	sb.WriteString("## Lifetime Totals\n\n")
	sb.WriteString("| Category | Total |\n")
	sb.WriteString("|----------|-------|\n")
	for _, c := range domain.FeeCategories() {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", c, r.ByCategory[c].String()))
	}
	sb.WriteString(fmt.Sprintf("| **all** | **%s** |\n", r.LifetimeTotal.String()))
	sb.WriteString("\n")

	// Today
	sb.WriteString(fmt.Sprintf("## Today (%s)\n\n", r.Today.Date))
	sb.WriteString("| Category | Total |\n")
	sb.WriteString("|----------|-------|\n")
	for _, c := range domain.FeeCategories() {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", c, r.Today.ByCategory[c].String()))
	}
	sb.WriteString(fmt.Sprintf("| **all** | **%s** |\n", r.Today.Total.String()))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Estimated trading volume today: %s\n\n", r.EstimatedDailyVolume.String()))

	// Last 7 days
	if len(r.Weekly) > 0 {
		sb.WriteString("## Last 7 Days\n\n")
		sb.WriteString("| Day | Creation | Trading | Conversion | Total |\n")
		sb.WriteString("|-----|----------|---------|------------|-------|\n")
		for _, b := range r.Weekly {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				b.Date,
				b.ByCategory[domain.FeeCategoryCreation].String(),
				b.ByCategory[domain.FeeCategoryTrading].String(),
				b.ByCategory[domain.FeeCategoryConversion].String(),
				b.Total.String()))
		}
		sb.WriteString("\n")
	}

	// Fee schedule in effect
	sb.WriteString("## Fee Schedule\n\n")
	sb.WriteString("| Fee | Value |\n")
	sb.WriteString("|-----|-------|\n")
	sb.WriteString(fmt.Sprintf("| Creation fee (SOL) | %s |\n", r.Schedule.CreationFee.String()))
	sb.WriteString(fmt.Sprintf("| Trading rate | %s |\n", r.Schedule.TradingRate.String()))
	sb.WriteString(fmt.Sprintf("| Conversion rate | %s |\n", r.Schedule.ConversionRate.String()))
	sb.WriteString(fmt.Sprintf("| Creation reward (PXP) | %s |\n", r.Schedule.CreationReward.String()))
	sb.WriteString("\n")

	return sb.String()
}
