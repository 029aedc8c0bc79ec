package ledger

import (
	"fmt"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

// MinNumericColumns is the least number of number-bearing columns a trial
// balance must have to be processed.
const MinNumericColumns = 2

// CheckStructure rejects tables with fewer than MinNumericColumns columns that
// contain any number-like cell. It returns the numeric column count.
func CheckStructure(table domain.RawTable) (int, error) {
	n := CountNumericColumns(table)
	if n < MinNumericColumns {
		return n, domain.WrapError(
			domain.ErrInsufficientStructure,
			"check structure",
			fmt.Errorf("found %d amount-like columns, need at least %d", n, MinNumericColumns),
		)
	}
	return n, nil
}
