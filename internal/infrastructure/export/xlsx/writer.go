// Package xlsx renders an analysis as a workbook for download.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ledger"
)

const (
	SheetReport     = "損益計算書"
	SheetPreview    = "プレビュー"
	SheetCandidates = "列候補"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// Built-in "#,##0".
	amountNumFmt = 3
)

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Write(out io.Writer, analysis *domain.Analysis) error {
	if analysis == nil {
		return domain.WrapError(domain.ErrInvalidInput, "export xlsx", fmt.Errorf("analysis is empty"))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetReport); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetPreview, SheetCandidates} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: amountNumFmt})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sheets := []struct {
		name string
		rows [][]any
		// 1-based column holding amounts, 0 for none.
		amountCol int
	}{
		{name: SheetReport, rows: reportRows(analysis), amountCol: 2},
		{name: SheetPreview, rows: previewRows(analysis.Preview), amountCol: 2},
		{name: SheetCandidates, rows: candidateRows(analysis)},
	}
	for _, sheet := range sheets {
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet.name, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("style header %s: %w", sheet.name, err)
		}
		if err := f.SetColWidth(sheet.name, "A", "A", 28); err != nil {
			return fmt.Errorf("set width %s: %w", sheet.name, err)
		}
		if sheet.amountCol > 0 && len(sheet.rows) > 1 {
			first, _ := excelize.CoordinatesToCellName(sheet.amountCol, 2)
			last, _ := excelize.CoordinatesToCellName(sheet.amountCol, len(sheet.rows))
			if err := f.SetCellStyle(sheet.name, first, last, amountStyle); err != nil {
				return fmt.Errorf("style amounts %s: %w", sheet.name, err)
			}
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func reportRows(analysis *domain.Analysis) [][]any {
	figures := analysis.Figures
	if len(figures) == 0 {
		figures = ledger.Figures(analysis.Report)
	}
	rows := [][]any{{"項目", "金額"}}
	for _, fig := range figures {
		rows = append(rows, []any{fig.Label, fig.Value})
	}
	params := analysis.Report.Params
	rows = append(rows,
		[]any{"実効税率(%)", params.EffectiveTaxRate},
		[]any{"繰越欠損金", params.LossCarryforward},
		[]any{"中間納付額", params.InterimTaxPaid},
	)
	return rows
}

func previewRows(preview []domain.NormalizedRow) [][]any {
	rows := [][]any{{"勘定科目", "金額"}}
	for _, r := range preview {
		rows = append(rows, []any{r.Label, r.Amount})
	}
	return rows
}

func candidateRows(analysis *domain.Analysis) [][]any {
	rows := [][]any{{"役割", "列", "スコア", "採用"}}
	for _, c := range analysis.SubjectCandidates {
		rows = append(rows, []any{"勘定科目", c.Column, c.Score, c.Column == analysis.SubjectColumn})
	}
	for _, c := range analysis.AmountCandidates {
		rows = append(rows, []any{"金額", c.Column, c.Score, c.Column == analysis.AmountColumn})
	}
	return rows
}
