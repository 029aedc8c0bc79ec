package xlsxtable

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

// Decoder reads the first worksheet of an .xlsx trial balance with the same
// policy as the CSV decoder: the first row is skipped, no header is trusted.
type Decoder struct{}

func New() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Decode(ctx context.Context, body io.Reader) (domain.RawTable, error) {
	f, err := excelize.OpenReader(body)
	if err != nil {
		return domain.RawTable{}, domain.WrapError(domain.ErrIngestion, "open xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.RawTable{}, domain.WrapError(domain.ErrIngestion, "open xlsx", errors.New("workbook has no sheets"))
	}
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.RawTable{}, domain.WrapError(domain.ErrIngestion, "read xlsx rows", err)
	}

	out := make([][]string, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return domain.RawTable{}, domain.WrapError(domain.ErrIngestion, "read xlsx rows", fmt.Errorf("sheet %q has no data rows", sheets[0]))
	}
	return domain.RawTable{Rows: out}, nil
}
