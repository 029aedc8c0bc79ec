package ledger

import (
	"testing"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

func TestSumByKeywords(t *testing.T) {
	table := domain.NormalizedTable{Rows: []domain.NormalizedRow{
		{Label: "売上高", Amount: 100},
		{Label: "製品売上高", Amount: 50},
		{Label: "売上原価", Amount: -40},
		{Label: "a.b", Amount: 7},
	}}

	if got := SumByKeywords(table, []string{"売上高"}); got != 150 {
		t.Fatalf("expected 150, got %v", got)
	}
	if got := SumByKeywords(table, []string{"売上高", "原価"}); got != 110 {
		t.Fatalf("expected disjunction sum 110, got %v", got)
	}
	if got := SumByKeywords(table, []string{"."}); got != 7 {
		t.Fatalf("expected literal dot match 7, got %v", got)
	}
	if got := SumByKeywords(table, []string{"特別利益"}); got != 0.0 {
		t.Fatalf("expected 0 for no match, got %v", got)
	}
	if got := SumByKeywords(domain.NormalizedTable{}, []string{"売上高"}); got != 0.0 {
		t.Fatalf("expected 0 for empty table, got %v", got)
	}
}

func TestCalculateEndToEnd(t *testing.T) {
	raw := domain.RawTable{Rows: [][]string{
		{"売上高", "10,000"},
		{"売上原価", "(4,000)"},
		{"販管費計", "2,000"},
	}}
	table := Normalize(raw, 0, 1)

	pl := Calculate(table, domain.TaxParams{EffectiveTaxRate: 30})

	checks := []struct {
		name      string
		got, want float64
	}{
		{"sales", pl.Sales, 10000},
		{"cogs", pl.COGS, -4000},
		{"gross_profit", pl.GrossProfit, 14000},
		{"sga", pl.SGA, 2000},
		{"operating_profit", pl.OperatingProfit, 12000},
		{"ordinary_profit", pl.OrdinaryProfit, 12000},
		{"pretax_profit", pl.PretaxProfit, 12000},
		{"net_profit", pl.NetProfit, 12000},
		{"taxable_income", pl.Tax.TaxableIncome, 12000},
		{"estimated_tax", pl.Tax.EstimatedTax, 3600},
		{"additional_payment", pl.Tax.AdditionalPayment, 3600},
		{"refund", pl.Tax.Refund, 0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestCalculateFullWaterfall(t *testing.T) {
	table := domain.NormalizedTable{Rows: []domain.NormalizedRow{
		{Label: "売上高", Amount: 1000},
		{Label: "売上原価", Amount: 400},
		{Label: "販売費及び一般管理費", Amount: 300},
		{Label: "営業外収益", Amount: 50},
		{Label: "営業外費用", Amount: 20},
		{Label: "特別利益", Amount: 10},
		{Label: "特別損失", Amount: 40},
		{Label: "法人税、住民税及び事業税", Amount: 80},
		{Label: "法人税等調整額", Amount: 5},
	}}

	pl := Calculate(table, domain.DefaultTaxParams())

	if pl.GrossProfit != 600 || pl.OperatingProfit != 300 || pl.OrdinaryProfit != 330 || pl.PretaxProfit != 300 {
		t.Fatalf("unexpected waterfall: %+v", pl)
	}
	// "法人税等" is a substring of "法人税等調整額", so the adjustment is counted twice.
	if pl.Taxes != 85 || pl.TaxAdjustment != 5 {
		t.Fatalf("unexpected tax lines: taxes=%v adj=%v", pl.Taxes, pl.TaxAdjustment)
	}
	if pl.NetProfit != 210 {
		t.Fatalf("expected net profit 210, got %v", pl.NetProfit)
	}
	if pl.Tax.EstimatedTax != 90 {
		t.Fatalf("expected estimated tax 90, got %v", pl.Tax.EstimatedTax)
	}
}

func TestProjectTaxNonNegativeAndExclusive(t *testing.T) {
	cases := []struct {
		pretax float64
		params domain.TaxParams
	}{
		{-5000, domain.TaxParams{EffectiveTaxRate: 30}},
		{10000, domain.TaxParams{EffectiveTaxRate: 30, InterimTaxPaid: 5000}},
		{10000, domain.TaxParams{EffectiveTaxRate: 30, LossCarryforward: 20000}},
		{10000, domain.TaxParams{EffectiveTaxRate: 120, InterimTaxPaid: -1, LossCarryforward: -1}},
	}
	for _, c := range cases {
		got := ProjectTax(c.pretax, c.params)
		if got.TaxableIncome < 0 || got.EstimatedTax < 0 || got.AdditionalPayment < 0 || got.Refund < 0 {
			t.Fatalf("negative projection for %+v: %+v", c, got)
		}
		if got.AdditionalPayment > 0 && got.Refund > 0 {
			t.Fatalf("additional payment and refund both positive: %+v", got)
		}
	}

	clamped := ProjectTax(10000, domain.TaxParams{EffectiveTaxRate: 120})
	if clamped.EstimatedTax != 7000 {
		t.Fatalf("expected rate clamped to 70%%, got %v", clamped.EstimatedTax)
	}
	refund := ProjectTax(10000, domain.TaxParams{EffectiveTaxRate: 30, InterimTaxPaid: 5000})
	if refund.Refund != 2000 || refund.AdditionalPayment != 0 {
		t.Fatalf("expected refund 2000, got %+v", refund)
	}
}

func TestProjectTaxMonotonicity(t *testing.T) {
	base := domain.TaxParams{EffectiveTaxRate: 30}
	pretax := 50000.0

	prev := ProjectTax(pretax, base)
	for carry := 0.0; carry <= 80000; carry += 5000 {
		p := base
		p.LossCarryforward = carry
		cur := ProjectTax(pretax, p)
		if cur.EstimatedTax > prev.EstimatedTax {
			t.Fatalf("estimated tax increased with carryforward %v: %v > %v", carry, cur.EstimatedTax, prev.EstimatedTax)
		}
		prev = cur
	}

	prev = ProjectTax(pretax, base)
	for interim := 0.0; interim <= 30000; interim += 2500 {
		p := base
		p.InterimTaxPaid = interim
		cur := ProjectTax(pretax, p)
		if cur.AdditionalPayment > prev.AdditionalPayment {
			t.Fatalf("additional payment increased with interim %v", interim)
		}
		if cur.Refund < prev.Refund {
			t.Fatalf("refund decreased with interim %v", interim)
		}
		prev = cur
	}
}
