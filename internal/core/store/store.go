// Package store matches receipt header lines against the resolved
// locale's retailer rules. A match is an accelerator: it selects a store
// override for the merge step and names the merchant with high
// confidence. No match is a perfectly valid outcome
package store

import (
	"strings"
	"unicode"

	"bonscan/internal/core/localepack"
	"bonscan/internal/core/normalize"
	"bonscan/internal/platform/logger"
)

// defaultScanLimit bounds the header scan when the locale does not tune it
const defaultScanLimit = 20

// Match is a recognized retailer
type Match struct {
	Store      *localepack.Store
	Matched    string // the brand or alias substring that hit
	LineIndex  int
	Confidence float64
}

// Resolve scans the top of the receipt for known brand strings.
// Candidates are ranked by rule priority, then by length of the matched
// substring so that "netto marken-discount" beats a bare "netto" that
// could also be a tax word. Returns nil when nothing matches
func Resolve(lines []string, loc localepack.Locale) *Match {
	limit := loc.Extractors.StoreScanLimit
	if limit <= 0 {
		limit = defaultScanLimit
	}
	if limit > len(lines) {
		limit = len(lines)
	}

	var best *Match
	for i := 0; i < limit; i++ {
		folded := normalize.Fold(lines[i])
		if folded == "" {
			continue
		}
		for si := range loc.Stores {
			st := &loc.Stores[si]
			needles := make([]string, 0, len(st.Brands)+len(st.Aliases))
			needles = append(needles, st.Brands...)
			needles = append(needles, st.Aliases...)
			for _, n := range needles {
				if !normalize.ContainsFold(folded, n) {
					continue
				}
				cand := &Match{Store: st, Matched: n, LineIndex: i, Confidence: 0.9}
				if betterMatch(cand, best) {
					best = cand
				}
			}
		}
	}

	if best != nil {
		logger.Named("store").Debug().
			Str("store", best.Store.Name).
			Str("matched", best.Matched).
			Int("line", best.LineIndex).
			Msg("store resolved")
	}
	return best
}

func betterMatch(a, b *Match) bool {
	if b == nil {
		return true
	}
	if a.Store.Priority != b.Store.Priority {
		return a.Store.Priority > b.Store.Priority
	}
	return len(a.Matched) > len(b.Matched)
}

// GuessMerchant picks a plausible merchant name from the header when no
// configured store matched: the first line that is mostly letters,
// carries no digits and is not noise. Low confidence, metadata only;
// it never selects an override
func GuessMerchant(lines []string, noise []string) (string, bool) {
	limit := defaultScanLimit
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := 0; i < limit; i++ {
		s := strings.TrimSpace(lines[i])
		if s == "" || len([]rune(s)) < 3 {
			continue
		}
		folded := normalize.Fold(s)
		if normalize.ContainsAnyFold(folded, noise) != "" {
			continue
		}
		if !mostlyLetters(s) {
			continue
		}
		return s, true
	}
	return "", false
}

// mostlyLetters rejects lines with any digit and requires a letter
// majority among non-space runes
func mostlyLetters(s string) bool {
	letters, other := 0, 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			return false
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r):
		default:
			other++
		}
	}
	return letters > 0 && letters >= other*2
}
