// Package normalize folds receipt text into a canonical matchable form.
// Keyword and brand matching across 100+ locales must survive OCR case
// noise and diacritics, so all matching goes through Fold
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransform = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lowercases s, strips combining marks (so "Żabka" matches "zabka"),
// and collapses runs of whitespace to single spaces
func Fold(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(foldTransform, s)
	if err != nil {
		// invalid UTF-8 survives OCR sometimes; fall back to the raw string
		out = s
	}
	return collapseSpace(strings.ToLower(out))
}

// ContainsFold reports whether needle occurs in haystack after folding both
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// ContainsAnyFold returns the first needle found in haystack after folding,
// or "" when none match
func ContainsAnyFold(haystack string, needles []string) string {
	h := Fold(haystack)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(h, Fold(n)) {
			return n
		}
	}
	return ""
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
