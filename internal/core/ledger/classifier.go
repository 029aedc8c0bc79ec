package ledger

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

// Scoring weights for column role inference.
const (
	SubjectKeywordWeight   = 3.0
	SubjectJapaneseWeight  = 1.0
	SubjectShortTextWeight = 0.2
	ShortTextMinRunes      = 1
	ShortTextMaxRunes      = 40

	AmountNumberWeight   = 2.0
	AmountNonBlankWeight = 0.1

	CandidateCount = 3
)

// SubjectKeywords mark a cell as an account name.
var SubjectKeywords = []string{"売上", "費用", "利益", "原価", "経費", "収益"}

// ClassifyColumns scores every column for subject-likeness and
// amount-likeness. Both rankings contain each column exactly once.
func ClassifyColumns(table domain.RawTable) domain.ColumnRanking {
	width := table.Width()
	ranking := domain.ColumnRanking{
		Width:   width,
		Subject: make([]domain.ColumnScore, 0, width),
		Amount:  make([]domain.ColumnScore, 0, width),
	}
	for col := 0; col < width; col++ {
		cells := columnCells(table, col)
		ranking.Subject = append(ranking.Subject, domain.ColumnScore{Column: col, Score: SubjectScore(cells)})
		ranking.Amount = append(ranking.Amount, domain.ColumnScore{Column: col, Score: AmountScore(cells)})
	}
	sortScores(ranking.Subject)
	sortScores(ranking.Amount)
	return ranking
}

func SubjectScore(cells []string) float64 {
	var keywordHits, japaneseHits, shortHits int
	for _, cell := range cells {
		text := strings.TrimSpace(cell)
		if containsAny(text, SubjectKeywords) {
			keywordHits++
		}
		if hasJapanese(text) {
			japaneseHits++
		}
		if n := utf8.RuneCountInString(text); n >= ShortTextMinRunes && n <= ShortTextMaxRunes {
			shortHits++
		}
	}
	return SubjectKeywordWeight*float64(keywordHits) +
		SubjectJapaneseWeight*float64(japaneseHits) +
		SubjectShortTextWeight*float64(shortHits)
}

func AmountScore(cells []string) float64 {
	var numberHits, nonBlank int
	for _, cell := range cells {
		if IsNumberLike(cell) {
			numberHits++
		}
		if !isBlank(cell) {
			nonBlank++
		}
	}
	return AmountNumberWeight*float64(numberHits) + AmountNonBlankWeight*float64(nonBlank)
}

// CountNumericColumns counts columns holding at least one number-like cell.
func CountNumericColumns(table domain.RawTable) int {
	count := 0
	for col := 0; col < table.Width(); col++ {
		for _, cell := range columnCells(table, col) {
			if IsNumberLike(cell) {
				count++
				break
			}
		}
	}
	return count
}

// HasSubjectCandidate reports whether any cell carries an account keyword.
func HasSubjectCandidate(table domain.RawTable) bool {
	for _, row := range table.Rows {
		for _, cell := range row {
			if containsAny(cell, SubjectKeywords) {
				return true
			}
		}
	}
	return false
}

// columnCells returns the column's cells; short rows contribute nothing.
func columnCells(table domain.RawTable, col int) []string {
	cells := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if col < len(row) {
			cells = append(cells, row[col])
		}
	}
	return cells
}

func sortScores(scores []domain.ColumnScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func hasJapanese(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
