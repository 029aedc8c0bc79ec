package ledger

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// Vocabulary binds every P&L line item to its keyword set.
type Vocabulary struct {
	Sales         []string `yaml:"sales"`
	COGS          []string `yaml:"cogs"`
	SGA           []string `yaml:"sga"`
	NonOpIncome   []string `yaml:"nonop_income"`
	NonOpExpense  []string `yaml:"nonop_exp"`
	SpecialGain   []string `yaml:"special_gain"`
	SpecialLoss   []string `yaml:"special_loss"`
	Taxes         []string `yaml:"taxes"`
	TaxAdjustment []string `yaml:"tax_adjustment"`
}

var defaultVocabulary = mustParseVocabulary(vocabularyYAML)

// DefaultVocabulary returns a copy of the built-in line item vocabulary.
func DefaultVocabulary() Vocabulary {
	v := defaultVocabulary
	return Vocabulary{
		Sales:         clone(v.Sales),
		COGS:          clone(v.COGS),
		SGA:           clone(v.SGA),
		NonOpIncome:   clone(v.NonOpIncome),
		NonOpExpense:  clone(v.NonOpExpense),
		SpecialGain:   clone(v.SpecialGain),
		SpecialLoss:   clone(v.SpecialLoss),
		Taxes:         clone(v.Taxes),
		TaxAdjustment: clone(v.TaxAdjustment),
	}
}

func ParseVocabulary(raw []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("decode vocabulary: %w", err)
	}
	for name, keywords := range v.byLineItem() {
		if len(keywords) == 0 {
			return Vocabulary{}, fmt.Errorf("vocabulary: line item %q has no keywords", name)
		}
	}
	return v, nil
}

func mustParseVocabulary(raw []byte) Vocabulary {
	v, err := ParseVocabulary(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Vocabulary) byLineItem() map[string][]string {
	return map[string][]string{
		"sales":          v.Sales,
		"cogs":           v.COGS,
		"sga":            v.SGA,
		"nonop_income":   v.NonOpIncome,
		"nonop_exp":      v.NonOpExpense,
		"special_gain":   v.SpecialGain,
		"special_loss":   v.SpecialLoss,
		"taxes":          v.Taxes,
		"tax_adjustment": v.TaxAdjustment,
	}
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
