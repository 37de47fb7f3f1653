// Package normalize holds the locale-aware text, code and money cleaning
// used across supplier-authored tariff sheets. Everything here is a pure
// function: no failure modes, no shared state.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multiSpace = regexp.MustCompile(`\s+`)

// accentFold decomposes to NFD and strips combining marks, so that
// Á→A, É→E, Í→I, Ó→O, Ú→U, Ñ→N, Ü→U.
var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Text uppercases, trims, accent-folds, and collapses internal whitespace
// runs to a single space. An empty or unset value yields "".
func Text(v string) string {
	s := strings.ToUpper(strings.TrimSpace(v))
	if s == "" {
		return ""
	}
	if folded, _, err := transform.String(accentFold, s); err == nil {
		s = folded
	}
	return multiSpace.ReplaceAllString(s, " ")
}

// nullMarkers are literal cell values that mean "no value". Compared after
// uppercasing.
var nullMarkers = map[string]struct{}{
	"": {}, "NONE": {}, "NAN": {}, "NULL": {},
}

// CleanCodeToken strips the trailing ".0" artifact that numeric-origin cells
// carry and rejects null markers. The second return is false when nothing
// usable remains.
func CleanCodeToken(v string) (string, bool) {
	s := strings.TrimSpace(v)
	s = strings.TrimSuffix(s, ".0")
	if _, null := nullMarkers[strings.ToUpper(s)]; null {
		return "", false
	}
	return s, true
}

// DigitsOnly removes every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Alphanumeric removes every rune outside [0-9A-Za-z].
func Alphanumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var currencyJunk = regexp.MustCompile(`[$\s]`)

// ParseMonetary parses a Colombian-formatted money string ("$45.000,50",
// "45000.5", "1,200,000") into a strictly positive amount. The second return
// is false for non-positive, empty, or unparseable input; parse failures
// never propagate.
func ParseMonetary(v string) (float64, bool) {
	s := currencyJunk.ReplaceAllString(strings.TrimSpace(v), "")
	if s == "" || s == "-" {
		return 0, false
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		// The rightmost separator is the decimal mark; the other is grouping.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		// A single comma followed by 1-2 digits is a decimal comma;
		// anything else is grouping.
		if i := strings.LastIndex(s, ","); strings.Count(s, ",") == 1 && len(s)-i-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		// "45.000" is grouping, "45000.5" is a decimal point.
		if i := strings.LastIndex(s, "."); strings.Count(s, ".") > 1 || len(s)-i-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// Positive returns v if it is strictly positive, used for already-numeric
// tariff cells.
func Positive(v float64) (float64, bool) {
	if v > 0 {
		return v, true
	}
	return 0, false
}

// Similarity returns a character-sequence similarity ratio in [0,1] based on
// the longest common subsequence of the two strings. Used only as a fallback
// matching aid.
func Similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}
