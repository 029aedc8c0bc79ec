package ledger

import (
	"strconv"
	"strings"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

// Normalize builds the (label, amount) table from the chosen columns. Rows
// with an empty or "nan" label, or a non-numeric amount, are dropped.
func Normalize(table domain.RawTable, subjectCol, amountCol int) domain.NormalizedTable {
	out := domain.NormalizedTable{
		Rows:   make([]domain.NormalizedRow, 0, len(table.Rows)),
		RowsIn: len(table.Rows),
	}
	for i := range table.Rows {
		subject, _ := table.Cell(i, subjectCol)
		label := strings.TrimSpace(subject)
		if label == "" || strings.EqualFold(label, "nan") {
			continue
		}

		amountText, ok := table.Cell(i, amountCol)
		if !ok {
			continue
		}
		amount, ok := ToNumber(amountText)
		if !ok {
			continue
		}

		out.Rows = append(out.Rows, domain.NormalizedRow{Label: label, Amount: amount})
	}
	return out
}

// ToRawTable renders a normalized table back into two text columns
// (label, amount) that Normalize accepts unchanged.
func ToRawTable(table domain.NormalizedTable) domain.RawTable {
	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, []string{row.Label, strconv.FormatFloat(row.Amount, 'f', -1, 64)})
	}
	return domain.RawTable{Rows: rows}
}
