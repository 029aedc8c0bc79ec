package ledger

import (
	"math"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

// Calculator composes keyword sums into the profit waterfall and tax
// projection.
type Calculator struct {
	vocab Vocabulary
}

func NewCalculator(vocab Vocabulary) *Calculator {
	return &Calculator{vocab: vocab}
}

// Calculate uses the built-in vocabulary.
func Calculate(table domain.NormalizedTable, params domain.TaxParams) domain.ProfitAndLoss {
	return NewCalculator(defaultVocabulary).Calculate(table, params)
}

func (c *Calculator) Calculate(table domain.NormalizedTable, params domain.TaxParams) domain.ProfitAndLoss {
	pl := domain.ProfitAndLoss{
		Sales:         SumByKeywords(table, c.vocab.Sales),
		COGS:          SumByKeywords(table, c.vocab.COGS),
		SGA:           SumByKeywords(table, c.vocab.SGA),
		NonOpIncome:   SumByKeywords(table, c.vocab.NonOpIncome),
		NonOpExpense:  SumByKeywords(table, c.vocab.NonOpExpense),
		SpecialGain:   SumByKeywords(table, c.vocab.SpecialGain),
		SpecialLoss:   SumByKeywords(table, c.vocab.SpecialLoss),
		Taxes:         SumByKeywords(table, c.vocab.Taxes),
		TaxAdjustment: SumByKeywords(table, c.vocab.TaxAdjustment),
	}

	pl.GrossProfit = pl.Sales - pl.COGS
	pl.OperatingProfit = pl.GrossProfit - pl.SGA
	pl.OrdinaryProfit = pl.OperatingProfit + pl.NonOpIncome - pl.NonOpExpense
	pl.PretaxProfit = pl.OrdinaryProfit + pl.SpecialGain - pl.SpecialLoss
	pl.NetProfit = pl.PretaxProfit - pl.Taxes - pl.TaxAdjustment

	pl.Params = params.Normalize()
	pl.Tax = ProjectTax(pl.PretaxProfit, pl.Params)
	return pl
}

// ProjectTax estimates the tax due on pretax profit. All outputs are
// non-negative and at most one of AdditionalPayment and Refund is positive.
func ProjectTax(pretaxProfit float64, params domain.TaxParams) domain.TaxProjection {
	p := params.Normalize()
	taxable := math.Max(0, pretaxProfit-p.LossCarryforward)
	estimated := taxable * (p.EffectiveTaxRate / 100)
	return domain.TaxProjection{
		TaxableIncome:     taxable,
		EstimatedTax:      estimated,
		AdditionalPayment: math.Max(0, estimated-p.InterimTaxPaid),
		Refund:            math.Max(0, p.InterimTaxPaid-estimated),
	}
}
