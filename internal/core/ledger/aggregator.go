package ledger

import "github.com/kirillkom/trial-balance-analyzer/internal/core/domain"

// SumByKeywords adds the amounts of rows whose label contains any keyword as
// a plain substring. No match yields 0. Amounts are summed with the sign the
// normalizer produced.
func SumByKeywords(table domain.NormalizedTable, keywords []string) float64 {
	total := 0.0
	for _, row := range table.Rows {
		if containsAny(row.Label, keywords) {
			total += row.Amount
		}
	}
	return total
}
