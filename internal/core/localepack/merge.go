package localepack

import (
	"regexp"
	"strings"

	"bonscan/internal/core/money"
	perr "bonscan/internal/platform/errors"
)

// DateOrder tells the extractor how to read a template's capture groups
type DateOrder int

const (
	// OrderDMY is day month year (31.12.2024)
	OrderDMY DateOrder = iota
	// OrderYMD is year month day (2024-12-31)
	OrderYMD
	// OrderMDY is month day year (12/31/2024)
	OrderMDY
)

// DateTemplate is one compiled date format from a locale config
type DateTemplate struct {
	Pattern   string
	Re        *regexp.Regexp
	Order     DateOrder
	ShortYear bool
}

// Merged is a locale config with an optional store override applied and
// all regex templates compiled. Read-only once constructed; shared by the
// metadata, classification and validation stages of a single receipt
type Merged struct {
	Locale Locale
	Store  string // resolved store name, empty when none matched

	Format money.Format

	Dates     []DateTemplate
	WeightRes []*regexp.Regexp
	TaxRes    []*regexp.Regexp
}

// Merge applies a store override to its locale and compiles the result.
// Scalar overrides replace unconditionally; list overrides extend the
// locale's list unless their first element is ReplaceSentinel, in which
// case they replace it wholesale
func Merge(loc Locale, store *Store) (*Merged, error) {
	merged := loc // value copy; lists are re-sliced below, never mutated

	name := ""
	if store != nil {
		name = store.Name
		if o := store.Override; o != nil {
			if o.Currency != nil {
				merged.Currency = *o.Currency
			}
			if o.TaxClassesInverted != nil {
				merged.TaxClassesInverted = *o.TaxClassesInverted
			}
			if o.RoundingUnit != nil {
				merged.RoundingUnit = *o.RoundingUnit
			}
			merged.DateFormats = mergeList(loc.DateFormats, o.DateFormats)
			merged.WeightPatterns = mergeList(loc.WeightPatterns, o.WeightPatterns)
			merged.TaxPatterns = mergeList(loc.TaxPatterns, o.TaxPatterns)
			merged.Keywords = Keywords{
				Total:    mergeList(loc.Keywords.Total, o.Keywords.Total),
				Discount: mergeList(loc.Keywords.Discount, o.Keywords.Discount),
				Deposit:  mergeList(loc.Keywords.Deposit, o.Keywords.Deposit),
				Noise:    mergeList(loc.Keywords.Noise, o.Keywords.Noise),
				Payment:  mergeList(loc.Keywords.Payment, o.Keywords.Payment),
				Rounding: mergeList(loc.Keywords.Rounding, o.Keywords.Rounding),
			}
		}
	}

	m := &Merged{
		Locale: merged,
		Store:  name,
		Format: merged.Currency.MoneyFormat(),
	}

	var err error
	if m.Dates, err = compileDates(merged.DateFormats); err != nil {
		return nil, err
	}
	if m.WeightRes, err = compileAll(merged.WeightPatterns); err != nil {
		return nil, err
	}
	if m.TaxRes, err = compileAll(merged.TaxPatterns); err != nil {
		return nil, err
	}
	return m, nil
}

// mergeList implements the extend-or-replace override semantics
func mergeList(base, over []string) []string {
	if len(over) == 0 {
		return base
	}
	if over[0] == ReplaceSentinel {
		return over[1:]
	}
	out := make([]string, 0, len(base)+len(over))
	out = append(out, base...)
	out = append(out, over...)
	return out
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "compile pattern %q", p)
		}
		out = append(out, re)
	}
	return out, nil
}

// CompileDates exposes date-template compilation to the locale resolver,
// which scores candidate locales by date-format hits before any merge
func CompileDates(formats []string) ([]DateTemplate, error) {
	return compileDates(formats)
}

// compileDates turns declarative templates like "DD.MM.YYYY" into regexes.
// Separators tolerate optional surrounding whitespace since OCR often
// splits them off
func compileDates(formats []string) ([]DateTemplate, error) {
	out := make([]DateTemplate, 0, len(formats))
	for _, f := range formats {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		tpl := DateTemplate{
			Pattern:   f,
			Order:     OrderDMY,
			ShortYear: !strings.Contains(f, "YYYY") && strings.Contains(f, "YY"),
		}
		switch {
		case strings.HasPrefix(f, "YYYY"):
			tpl.Order = OrderYMD
		case strings.HasPrefix(f, "MM"):
			tpl.Order = OrderMDY
		}

		p := f
		p = strings.ReplaceAll(p, "YYYY", `(20\d{2})`)
		p = strings.ReplaceAll(p, "YY", `(\d{2})`)
		p = strings.ReplaceAll(p, "DD", `(\d{2})`)
		p = strings.ReplaceAll(p, "MM", `(\d{2})`)
		for _, sep := range []string{".", "/", "-"} {
			p = strings.ReplaceAll(p, sep, `\s?`+regexp.QuoteMeta(sep)+`\s?`)
		}

		re, err := regexp.Compile(p)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "compile date format %q", f)
		}
		tpl.Re = re
		out = append(out, tpl)
	}
	return out, nil
}

// FindStore locates a store rule by folded name within the locale registry
func (l Locale) FindStore(name string) *Store {
	for i := range l.Stores {
		if strings.EqualFold(l.Stores[i].Name, name) {
			return &l.Stores[i]
		}
	}
	return nil
}
