package httpadapter

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

// parseAnalysisParams reads the optional form fields shared by the analysis
// and statement endpoints. Empty fields fall back to defaults; the rate is
// clamped later by TaxParams.Normalize.
func parseAnalysisParams(r *http.Request, defaultTaxRate float64) (domain.AnalysisParams, error) {
	params := domain.AnalysisParams{
		Tax: domain.TaxParams{EffectiveTaxRate: defaultTaxRate},
	}

	var err error
	if params.Tax.EffectiveTaxRate, err = formAmount(r, "tax_rate", defaultTaxRate); err != nil {
		return domain.AnalysisParams{}, err
	}
	if params.Tax.LossCarryforward, err = formAmount(r, "loss_carryforward", 0); err != nil {
		return domain.AnalysisParams{}, err
	}
	if params.Tax.InterimTaxPaid, err = formAmount(r, "interim_tax_paid", 0); err != nil {
		return domain.AnalysisParams{}, err
	}
	if params.SubjectColumn, err = formColumn(r, "subject_col"); err != nil {
		return domain.AnalysisParams{}, err
	}
	if params.AmountColumn, err = formColumn(r, "amount_col"); err != nil {
		return domain.AnalysisParams{}, err
	}
	params.Tax = params.Tax.Normalize()
	return params, nil
}

func formAmount(r *http.Request, key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidField(key, raw)
	}
	if v < 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse form", fmt.Errorf("%s must not be negative", key))
	}
	return v, nil
}

func formColumn(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	col, err := strconv.Atoi(raw)
	if err != nil || col < 0 {
		return nil, invalidField(key, raw)
	}
	return &col, nil
}

func invalidField(key, raw string) error {
	return domain.WrapError(domain.ErrInvalidInput, "parse form", fmt.Errorf("%s=%q is not a valid value", key, raw))
}

func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, invalidField("limit", raw)
	}
	return limit, nil
}
