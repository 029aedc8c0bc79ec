package domain

const (
	DefaultTaxRate = 30.0
	MaxTaxRate     = 70.0
)

// TaxParams are the user-adjustable scalars of the tax projection.
type TaxParams struct {
	EffectiveTaxRate float64 `json:"effective_tax_rate"`
	LossCarryforward float64 `json:"loss_carryforward"`
	InterimTaxPaid   float64 `json:"interim_tax_paid"`
}

func DefaultTaxParams() TaxParams {
	return TaxParams{EffectiveTaxRate: DefaultTaxRate}
}

// Normalize clamps the rate into [0, MaxTaxRate] and negative amounts to zero.
func (p TaxParams) Normalize() TaxParams {
	out := p
	if !(out.EffectiveTaxRate > 0) {
		out.EffectiveTaxRate = 0
	}
	if out.EffectiveTaxRate > MaxTaxRate {
		out.EffectiveTaxRate = MaxTaxRate
	}
	if !(out.LossCarryforward > 0) {
		out.LossCarryforward = 0
	}
	if !(out.InterimTaxPaid > 0) {
		out.InterimTaxPaid = 0
	}
	return out
}

type TaxProjection struct {
	TaxableIncome     float64 `json:"taxable_income"`
	EstimatedTax      float64 `json:"estimated_tax"`
	AdditionalPayment float64 `json:"additional_payment"`
	Refund            float64 `json:"refund"`
}

// ProfitAndLoss is the flat set of line items and derived profits.
type ProfitAndLoss struct {
	Sales           float64 `json:"sales"`
	COGS            float64 `json:"cogs"`
	GrossProfit     float64 `json:"gross_profit"`
	SGA             float64 `json:"sga"`
	OperatingProfit float64 `json:"operating_profit"`
	NonOpIncome     float64 `json:"nonop_income"`
	NonOpExpense    float64 `json:"nonop_exp"`
	OrdinaryProfit  float64 `json:"ordinary_profit"`
	SpecialGain     float64 `json:"special_gain"`
	SpecialLoss     float64 `json:"special_loss"`
	PretaxProfit    float64 `json:"pretax_profit"`
	Taxes           float64 `json:"taxes"`
	TaxAdjustment   float64 `json:"tax_adjustment"`
	NetProfit       float64 `json:"net_profit"`

	Params TaxParams     `json:"params"`
	Tax    TaxProjection `json:"tax"`
}

// Figure is one display-ready report value.
type Figure struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// AnalysisParams carries optional column overrides and tax inputs.
// Nil columns mean "use the top-ranked candidate".
type AnalysisParams struct {
	SubjectColumn *int      `json:"subject_col,omitempty"`
	AmountColumn  *int      `json:"amount_col,omitempty"`
	Tax           TaxParams `json:"tax"`
}

type RowStats struct {
	RowsIn  int `json:"rows_in"`
	RowsOut int `json:"rows_out"`
	Dropped int `json:"dropped"`
}

// Analysis is everything the presentation layer needs for one upload.
type Analysis struct {
	SubjectCandidates []ColumnScore   `json:"subject_candidates"`
	AmountCandidates  []ColumnScore   `json:"amount_candidates"`
	SubjectColumn     int             `json:"subject_col"`
	AmountColumn      int             `json:"amount_col"`
	NumericColumns    int             `json:"numeric_columns"`
	Preview           []NormalizedRow `json:"preview"`
	Stats             RowStats        `json:"stats"`
	Report            ProfitAndLoss   `json:"report"`
	Figures           []Figure        `json:"figures"`
	Warnings          []string        `json:"warnings,omitempty"`
}
