package localepack

import (
	"testing"
)

func baseLocale() Locale {
	return Locale{
		Code:     "de_DE",
		Name:     "Germany",
		Language: "de",
		Region:   "DE",
		Currency: Currency{
			Code: "EUR", Symbol: "€", DecimalSep: ",", ThousandsSep: ".",
		},
		DateFormats: []string{"DD.MM.YYYY"},
		Keywords: Keywords{
			Total:    []string{"summe"},
			Discount: []string{"rabatt"},
			Noise:    []string{"tel."},
		},
		WeightPatterns: []string{`(\d+[.,]\d{1,3})\s*kg\s*x\s*(\d+[.,]\d{2})`},
		RoundingUnit:   "",
	}
}

func TestMerge_NoStore(t *testing.T) {
	m, err := Merge(baseLocale(), nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Store != "" {
		t.Fatalf("expected no store, got %q", m.Store)
	}
	if m.Format.DecimalSep != "," || m.Format.Code != "EUR" {
		t.Fatalf("money format not derived: %+v", m.Format)
	}
	if len(m.Dates) != 1 || m.Dates[0].Order != OrderDMY {
		t.Fatalf("date templates not compiled: %+v", m.Dates)
	}
}

func TestMerge_ScalarOverrideWins(t *testing.T) {
	inverted := true
	unit := "0.05"
	st := &Store{
		Name:   "Biedronka",
		Brands: []string{"biedronka"},
		Override: &Override{
			TaxClassesInverted: &inverted,
			RoundingUnit:       &unit,
			Currency:           &Currency{Code: "PLN", Symbol: "zł", DecimalSep: ","},
		},
	}
	m, err := Merge(baseLocale(), st)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !m.Locale.TaxClassesInverted {
		t.Fatalf("scalar override did not win")
	}
	if m.Locale.RoundingUnit != "0.05" {
		t.Fatalf("rounding unit override lost: %q", m.Locale.RoundingUnit)
	}
	if m.Format.Code != "PLN" {
		t.Fatalf("currency override lost: %+v", m.Format)
	}
}

func TestMerge_ListExtendsByDefault(t *testing.T) {
	st := &Store{
		Name:   "Lidl",
		Brands: []string{"lidl"},
		Override: &Override{
			Keywords: Keywords{Discount: []string{"lidl plus rabatt"}},
		},
	}
	m, err := Merge(baseLocale(), st)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	got := m.Locale.Keywords.Discount
	if len(got) != 2 || got[0] != "rabatt" || got[1] != "lidl plus rabatt" {
		t.Fatalf("list should extend, got %v", got)
	}
}

func TestMerge_ReplaceSentinel(t *testing.T) {
	st := &Store{
		Name:   "Kaufland",
		Brands: []string{"kaufland"},
		Override: &Override{
			Keywords: Keywords{Total: []string{ReplaceSentinel, "zwischensumme"}},
		},
	}
	m, err := Merge(baseLocale(), st)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	got := m.Locale.Keywords.Total
	if len(got) != 1 || got[0] != "zwischensumme" {
		t.Fatalf("sentinel should replace wholesale, got %v", got)
	}
}

func TestMerge_BadPatternFails(t *testing.T) {
	loc := baseLocale()
	loc.TaxPatterns = []string{`([A-Z`}
	if _, err := Merge(loc, nil); err == nil {
		t.Fatalf("expected compile error for bad pattern")
	}
}

func TestLoadEmbedded(t *testing.T) {
	reg, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	for _, code := range []string{"de_DE", "pl_PL", "es_ES", "cs_CZ", "en_US"} {
		loc, err := reg.Get(code)
		if err != nil {
			t.Fatalf("missing embedded locale %s: %v", code, err)
		}
		if _, err := Merge(loc, nil); err != nil {
			t.Fatalf("embedded locale %s does not compile: %v", code, err)
		}
	}
	if _, err := reg.Get("xx_XX"); err == nil {
		t.Fatalf("expected not-found for unknown locale")
	}
}

func TestLoadEmbedded_StoreOverridesCompile(t *testing.T) {
	reg, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	for _, loc := range reg.All() {
		for i := range loc.Stores {
			if _, err := Merge(loc, &loc.Stores[i]); err != nil {
				t.Fatalf("store %s/%s does not merge: %v", loc.Code, loc.Stores[i].Name, err)
			}
		}
	}
}
