// Package terminal renders an analysis as plain text for the CLI.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"golang.org/x/text/width"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ledger"
)

const reportTemplate = `== 列候補 ==
勘定科目: {{range $i, $c := .SubjectCandidates}}{{if $i}}, {{end}}{{$c.Column}} ({{score $c.Score}}){{end}}  => 採用 {{.SubjectColumn}}
金額:     {{range $i, $c := .AmountCandidates}}{{if $i}}, {{end}}{{$c.Column}} ({{score $c.Score}}){{end}}  => 採用 {{.AmountColumn}}
数値列: {{.NumericColumns}}
{{- range .Warnings}}
警告: {{.}}
{{- end}}

== プレビュー (先頭{{len .Preview}}行 / 有効{{.Stats.RowsOut}}行, 除外{{.Stats.Dropped}}行) ==
{{- range .Preview}}
{{pad .Label 24}} {{printf "%16s" (amount .Amount)}}
{{- end}}

== 損益計算書 ==
{{- range .Figures}}
{{pad .Label 24}} {{printf "%16s" .Display}}
{{- end}}

実効税率 {{score .Report.Params.EffectiveTaxRate}}% / 繰越欠損金 {{amount .Report.Params.LossCarryforward}} / 中間納付額 {{amount .Report.Params.InterimTaxPaid}}
`

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"amount": ledger.FormatAmount,
	"score":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"pad":    padRight,
}).Parse(reportTemplate))

type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) Render(analysis *domain.Analysis) error {
	if analysis == nil {
		return fmt.Errorf("render report: analysis is nil")
	}
	view := *analysis
	if len(view.Figures) == 0 {
		view.Figures = ledger.Figures(view.Report)
	}
	if err := reportTmpl.Execute(r.out, view); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// padRight pads by display columns, counting East Asian wide runes as two.
func padRight(s string, columns int) string {
	w := 0
	for _, r := range s {
		w += runeWidth(r)
	}
	if w >= columns {
		return s
	}
	return s + strings.Repeat(" ", columns-w)
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}
