// Package ledger holds the trial-balance core: number normalization, column
// role inference, table normalization and the P&L/tax calculation.
package ledger

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numericGrammar = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Negative markers used by Japanese ledgers in place of a minus sign.
var triangleMarkers = strings.NewReplacer("▲", "-", "△", "-")

// ToNumber converts an accounting token to a signed float. The second result
// is false when the token is not a number; malformed input is never an error.
func ToNumber(token string) (float64, bool) {
	s := strings.TrimSpace(token)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", "")
	s = triangleMarkers.Replace(s)

	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner := strings.ReplaceAll(s[1:len(s)-1], "-", "")
		s = "-" + inner
	}

	if !numericGrammar.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// IsNumberLike reports whether ToNumber accepts the token.
func IsNumberLike(token string) bool {
	_, ok := ToNumber(token)
	return ok
}

// isBlank treats the pandas-style "nan" placeholder as empty.
func isBlank(cell string) bool {
	s := strings.TrimSpace(cell)
	return s == "" || strings.EqualFold(s, "nan")
}
