package reporting

import (
	"fmt"
	"strings"

	"pumpx-core/internal/domain"
)

// RenderCSV renders daily buckets as CSV string, one row per day.
func RenderCSV(buckets []domain.DailyBucket) string {
	var sb strings.Builder

	sb.WriteString("day,creation,trading,conversion,total\n")

	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s\n",
			b.Date,
			b.ByCategory[domain.FeeCategoryCreation].String(),
			b.ByCategory[domain.FeeCategoryTrading].String(),
			b.ByCategory[domain.FeeCategoryConversion].String(),
			b.Total.String(),
		))
	}

	return sb.String()
}
