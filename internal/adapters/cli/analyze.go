// Package cli holds the cobra commands of the tbreport binary.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/trial-balance-analyzer/internal/adapters/terminal"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/export/xlsx"
)

type AnalyzeCmd struct {
	taxRate          float64
	lossCarryforward float64
	interimTaxPaid   float64
	subjectCol       int
	amountCol        int
	xlsxPath         string
	jsonOut          bool
	timeout          time.Duration

	analyzer ports.TrialBalanceAnalyzer
	exporter *xlsx.Writer
}

func NewAnalyzeCmd(analyzer ports.TrialBalanceAnalyzer, defaultTaxRate float64) *cobra.Command {
	ac := &AnalyzeCmd{analyzer: analyzer, exporter: xlsx.NewWriter()}
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Build a P&L and tax projection from a trial-balance export",
		Args:  cobra.ExactArgs(1),
		RunE:  ac.run,
	}

	cmd.Flags().Float64Var(&ac.taxRate, "tax-rate", defaultTaxRate, "Effective tax rate in percent (0-70)")
	cmd.Flags().Float64Var(&ac.lossCarryforward, "loss-carryforward", 0, "Loss carryforward deducted from pretax profit")
	cmd.Flags().Float64Var(&ac.interimTaxPaid, "interim-tax-paid", 0, "Interim tax already paid")
	cmd.Flags().IntVar(&ac.subjectCol, "subject-col", -1, "Account label column (0-based); default is the top candidate")
	cmd.Flags().IntVar(&ac.amountCol, "amount-col", -1, "Amount column (0-based); default is the top candidate")
	cmd.Flags().StringVar(&ac.xlsxPath, "xlsx", "", "Also write the report workbook to this path")
	cmd.Flags().BoolVar(&ac.jsonOut, "json", false, "Print the analysis as JSON instead of text")
	cmd.Flags().DurationVar(&ac.timeout, "timeout", 60*time.Second, "Analysis timeout")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, args []string) error {
	params, err := ac.params(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), ac.timeout)
	defer cancel()

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	analysis, err := ac.analyzer.Analyze(ctx, filepath.Base(path), f, params)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", path, err)
	}

	if ac.jsonOut {
		if err := writeJSON(cmd.OutOrStdout(), analysis); err != nil {
			return err
		}
	} else if err := terminal.NewReporter(cmd.OutOrStdout()).Render(analysis); err != nil {
		return err
	}

	if ac.xlsxPath != "" {
		return ac.writeWorkbook(analysis)
	}
	return nil
}

func (ac *AnalyzeCmd) params(cmd *cobra.Command) (domain.AnalysisParams, error) {
	if ac.lossCarryforward < 0 || ac.interimTaxPaid < 0 || ac.taxRate < 0 {
		return domain.AnalysisParams{}, fmt.Errorf("tax inputs must not be negative")
	}
	params := domain.AnalysisParams{
		Tax: domain.TaxParams{
			EffectiveTaxRate: ac.taxRate,
			LossCarryforward: ac.lossCarryforward,
			InterimTaxPaid:   ac.interimTaxPaid,
		}.Normalize(),
	}
	if cmd.Flags().Changed("subject-col") {
		col := ac.subjectCol
		params.SubjectColumn = &col
	}
	if cmd.Flags().Changed("amount-col") {
		col := ac.amountCol
		params.AmountColumn = &col
	}
	return params, nil
}

func (ac *AnalyzeCmd) writeWorkbook(analysis *domain.Analysis) error {
	out, err := os.Create(ac.xlsxPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", ac.xlsxPath, err)
	}
	if err := ac.exporter.Write(out, analysis); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
