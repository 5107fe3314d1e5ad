// Package locale scores receipt text against per-country signal sets and
// resolves the locale that governs number and date parsing. Resolution is
// required: without it no number format can be assumed, so failure is
// terminal for the receipt
package locale

import (
	"unicode"

	"bonscan/internal/core/localepack"
	"bonscan/internal/core/normalize"
	perr "bonscan/internal/platform/errors"
	"bonscan/internal/platform/logger"
)

// signal weights; a brand is the strongest single signal
const (
	weightSymbol  = 1
	weightDate    = 1
	weightKeyword = 2
	weightBrand   = 3
)

// minScore is the fail-closed floor: below it no locale is accepted
const minScore = 2

// lowMargin winners need corroboration from a second signal category,
// since one ambiguous keyword shared across languages can false-positive
const lowMargin = 2

// Signals breaks a locale's score down by category, for diagnostics
type Signals struct {
	Symbol   int
	Dates    int
	Keywords int
	Brands   int
	Script   int
}

func (s Signals) total() int {
	return s.Symbol*weightSymbol + s.Dates*weightDate +
		s.Keywords*weightKeyword + s.Brands*weightBrand + s.Script
}

func (s Signals) categories() int {
	n := 0
	for _, c := range [...]int{s.Symbol, s.Dates, s.Keywords, s.Brands} {
		if c > 0 {
			n++
		}
	}
	return n
}

// Match is a resolved locale with its score breakdown
type Match struct {
	Code       string
	Confidence float64
	Signals    Signals
}

// Resolve scores every configured locale against the receipt text and
// returns the winner. Ties break by signal specificity: brand hits beat
// keyword hits beat symbol hits
func Resolve(lineTexts []string, fullText string, reg *localepack.Registry) (Match, error) {
	text := fullText
	if text == "" {
		for _, l := range lineTexts {
			text += l + "\n"
		}
	}
	folded := normalize.Fold(text)
	script := dominantScript(text)

	var (
		best      Match
		runnerUp  int
		anyScored bool
	)

	for _, loc := range reg.All() {
		sig := score(folded, text, script, loc)
		total := sig.total()
		if total == 0 {
			continue
		}
		anyScored = true
		cand := Match{Code: loc.Code, Signals: sig}
		if better(cand, best) {
			runnerUp = best.Signals.total()
			best = cand
		} else if total > runnerUp {
			runnerUp = total
		}
	}

	bestTotal := best.Signals.total()
	if !anyScored || bestTotal < minScore {
		return Match{}, perr.NoLocalef("no locale scored above minimum (best=%d)", bestTotal)
	}
	if bestTotal-runnerUp <= lowMargin && best.Signals.categories() < 2 {
		return Match{}, perr.NoLocalef(
			"ambiguous locale %s: margin %d with a single signal category",
			best.Code, bestTotal-runnerUp,
		)
	}

	best.Confidence = confidence(bestTotal, runnerUp)
	logger.Named("locale").Debug().
		Str("code", best.Code).
		Int("score", bestTotal).
		Int("runner_up", runnerUp).
		Msg("locale resolved")
	return best, nil
}

func score(folded, raw, script string, loc localepack.Locale) Signals {
	var sig Signals

	if loc.Currency.Symbol != "" && normalize.ContainsFold(raw, loc.Currency.Symbol) {
		sig.Symbol++
	}

	if dates, err := localepack.CompileDates(loc.DateFormats); err == nil {
		for _, d := range dates {
			if d.Re.MatchString(raw) {
				sig.Dates++
			}
		}
	}

	for _, kw := range loc.Keywords.Total {
		if normalize.ContainsFold(folded, kw) {
			sig.Keywords++
		}
	}
	for _, kw := range loc.Keywords.Discount {
		if normalize.ContainsFold(folded, kw) {
			sig.Keywords++
		}
	}

	for _, st := range loc.Stores {
		hit := false
		for _, b := range st.Brands {
			if normalize.ContainsFold(folded, b) {
				hit = true
				break
			}
		}
		if hit {
			sig.Brands++
		}
	}

	if script != "" && script == expectedScript(loc.Language) {
		sig.Script++
	}

	return sig
}

// better orders candidates by total score, then specificity
func better(a, b Match) bool {
	at, bt := a.Signals.total(), b.Signals.total()
	if at != bt {
		return at > bt
	}
	if a.Signals.Brands != b.Signals.Brands {
		return a.Signals.Brands > b.Signals.Brands
	}
	if a.Signals.Keywords != b.Signals.Keywords {
		return a.Signals.Keywords > b.Signals.Keywords
	}
	return false
}

func confidence(best, runnerUp int) float64 {
	if best <= 0 {
		return 0
	}
	c := float64(best-runnerUp) / float64(best)
	if c < 0.1 {
		c = 0.1
	}
	if c > 1 {
		c = 1
	}
	return c
}

// dominantScript returns a coarse script name for the letters in s
func dominantScript(s string) string {
	var latin, cyrillic, greek, thai int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		switch {
		case unicode.In(r, unicode.Cyrillic):
			cyrillic++
		case unicode.In(r, unicode.Greek):
			greek++
		case unicode.In(r, unicode.Thai):
			thai++
		case unicode.In(r, unicode.Latin):
			latin++
		}
	}
	best, name := 0, ""
	for _, c := range []struct {
		n   string
		cnt int
	}{{"Cyrillic", cyrillic}, {"Greek", greek}, {"Thai", thai}, {"Latin", latin}} {
		if c.cnt > best {
			best, name = c.cnt, c.n
		}
	}
	return name
}

// expectedScript maps a locale language to the script its receipts print in
func expectedScript(lang string) string {
	switch lang {
	case "ru", "uk", "bg", "kk":
		return "Cyrillic"
	case "el":
		return "Greek"
	case "th":
		return "Thai"
	default:
		return "Latin"
	}
}
