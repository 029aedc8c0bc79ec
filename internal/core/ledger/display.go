package ledger

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

var displayPrinter = message.NewPrinter(language.Japanese)

// FormatAmount rounds half-to-even and groups thousands, e.g. "-1,235".
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	r := math.RoundToEven(v)
	if math.Abs(r) >= math.MaxInt64 {
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	return displayPrinter.Sprintf("%d", int64(r))
}

// Figures lists the report in display order.
func Figures(pl domain.ProfitAndLoss) []domain.Figure {
	items := []struct {
		key, label string
		value      float64
	}{
		{"sales", "売上高", pl.Sales},
		{"cogs", "売上原価", pl.COGS},
		{"gross_profit", "売上総利益", pl.GrossProfit},
		{"sga", "販売費及び一般管理費", pl.SGA},
		{"operating_profit", "営業利益", pl.OperatingProfit},
		{"nonop_income", "営業外収益", pl.NonOpIncome},
		{"nonop_exp", "営業外費用", pl.NonOpExpense},
		{"ordinary_profit", "経常利益", pl.OrdinaryProfit},
		{"special_gain", "特別利益", pl.SpecialGain},
		{"special_loss", "特別損失", pl.SpecialLoss},
		{"pretax_profit", "税引前当期純利益", pl.PretaxProfit},
		{"taxes", "法人税等", pl.Taxes},
		{"tax_adjustment", "法人税等調整額", pl.TaxAdjustment},
		{"net_profit", "当期純利益", pl.NetProfit},
		{"taxable_income", "課税所得", pl.Tax.TaxableIncome},
		{"estimated_tax", "概算法人税等", pl.Tax.EstimatedTax},
		{"additional_payment", "追加納付見込額", pl.Tax.AdditionalPayment},
		{"refund", "還付見込額", pl.Tax.Refund},
	}

	out := make([]domain.Figure, 0, len(items))
	for _, it := range items {
		out = append(out, domain.Figure{
			Key:     it.key,
			Label:   it.label,
			Value:   it.value,
			Display: FormatAmount(it.value),
		})
	}
	return out
}
