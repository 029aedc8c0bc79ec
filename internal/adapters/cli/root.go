package cli

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
)

func NewRootCmd(analyzer ports.TrialBalanceAnalyzer, defaultTaxRate float64) *cobra.Command {
	root := &cobra.Command{
		Use:           "tbreport",
		Short:         "Trial-balance P&L analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewAnalyzeCmd(analyzer, defaultTaxRate))
	return root
}
