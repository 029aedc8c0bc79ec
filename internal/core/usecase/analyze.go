package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ledger"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
)

const DefaultPreviewRows = 20

const (
	warnNoSubjectColumn = "no account-like column detected; check the subject column selection"
	warnNoRows          = "no row has both an account label and a numeric amount"
)

type AnalyzeUseCase struct {
	decoders    ports.DecoderSelector
	calculator  *ledger.Calculator
	previewRows int
	observer    ports.AnalysisObserver
}

func NewAnalyzeUseCase(decoders ports.DecoderSelector, previewRows int) *AnalyzeUseCase {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}
	return &AnalyzeUseCase{
		decoders:    decoders,
		calculator:  ledger.NewCalculator(ledger.DefaultVocabulary()),
		previewRows: previewRows,
	}
}

// WithObserver attaches a sink for row statistics.
func (uc *AnalyzeUseCase) WithObserver(observer ports.AnalysisObserver) *AnalyzeUseCase {
	uc.observer = observer
	return uc
}

func (uc *AnalyzeUseCase) Analyze(
	ctx context.Context,
	filename string,
	body io.Reader,
	params domain.AnalysisParams,
) (*domain.Analysis, error) {
	table, err := uc.decoders.ForFile(filename).Decode(ctx, body)
	if err != nil {
		uc.observe(domain.RowStats{}, err)
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	analysis, err := uc.AnalyzeTable(table, params)
	if err != nil {
		uc.observe(domain.RowStats{RowsIn: len(table.Rows)}, err)
		return nil, err
	}
	uc.observe(analysis.Stats, nil)
	return analysis, nil
}

// AnalyzeTable runs structure check, column inference, normalization and the
// P&L calculation over an already decoded table.
func (uc *AnalyzeUseCase) AnalyzeTable(table domain.RawTable, params domain.AnalysisParams) (*domain.Analysis, error) {
	numeric, err := ledger.CheckStructure(table)
	if err != nil {
		return nil, err
	}

	ranking := ledger.ClassifyColumns(table)
	subjectCol, err := resolveColumn("subject_col", params.SubjectColumn, ranking.DefaultSubject(), ranking.Width)
	if err != nil {
		return nil, err
	}
	amountCol, err := resolveColumn("amount_col", params.AmountColumn, ranking.DefaultAmount(), ranking.Width)
	if err != nil {
		return nil, err
	}

	normalized := ledger.Normalize(table, subjectCol, amountCol)
	report := uc.calculator.Calculate(normalized, params.Tax)

	analysis := &domain.Analysis{
		SubjectCandidates: ranking.TopSubject(ledger.CandidateCount),
		AmountCandidates:  ranking.TopAmount(ledger.CandidateCount),
		SubjectColumn:     subjectCol,
		AmountColumn:      amountCol,
		NumericColumns:    numeric,
		Preview:           normalized.Head(uc.previewRows),
		Stats: domain.RowStats{
			RowsIn:  normalized.RowsIn,
			RowsOut: normalized.RowsOut(),
			Dropped: normalized.Dropped(),
		},
		Report:  report,
		Figures: ledger.Figures(report),
	}
	if !ledger.HasSubjectCandidate(table) {
		analysis.Warnings = append(analysis.Warnings, warnNoSubjectColumn)
	}
	if normalized.RowsOut() == 0 {
		analysis.Warnings = append(analysis.Warnings, warnNoRows)
	}
	return analysis, nil
}

func resolveColumn(name string, override *int, fallback, width int) (int, error) {
	if override == nil {
		return fallback, nil
	}
	col := *override
	if col < 0 || col >= width {
		return 0, domain.WrapError(
			domain.ErrInvalidInput,
			"resolve columns",
			fmt.Errorf("%s=%d is outside the table (0..%d)", name, col, width-1),
		)
	}
	return col, nil
}

func (uc *AnalyzeUseCase) observe(stats domain.RowStats, err error) {
	if uc.observer != nil {
		uc.observer.ObserveAnalysis(stats, err)
	}
}
