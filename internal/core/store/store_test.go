package store

import (
	"testing"

	"bonscan/internal/core/localepack"
)

func testLocale() localepack.Locale {
	return localepack.Locale{
		Code: "de_DE",
		Keywords: localepack.Keywords{
			Noise: []string{"tel.", "www.", "ust-id"},
		},
		Extractors: localepack.Extractors{StoreScanLimit: 20},
		Stores: []localepack.Store{
			{Name: "Netto", Brands: []string{"netto marken-discount"}, Aliases: []string{"netto"}, Priority: 5},
			{Name: "REWE", Brands: []string{"rewe"}, Aliases: []string{"rewe markt"}, Priority: 10},
			{Name: "Lidl", Brands: []string{"lidl"}, Priority: 10},
		},
	}
}

func TestResolve_BrandInHeader(t *testing.T) {
	lines := []string{"REWE Markt GmbH", "Hauptstr. 12", "Milch 1,09"}
	m := Resolve(lines, testLocale())
	if m == nil || m.Store.Name != "REWE" {
		t.Fatalf("expected REWE, got %+v", m)
	}
	if m.Matched != "rewe markt" {
		t.Fatalf("longest matching needle should win, got %q", m.Matched)
	}
	if m.LineIndex != 0 {
		t.Fatalf("expected header line 0, got %d", m.LineIndex)
	}
}

func TestResolve_CaseAndAccentInsensitive(t *testing.T) {
	lines := []string{"LÍDL Vertriebs GmbH"}
	m := Resolve(lines, testLocale())
	if m == nil || m.Store.Name != "Lidl" {
		t.Fatalf("expected Lidl despite accents, got %+v", m)
	}
}

func TestResolve_PriorityBeatsLength(t *testing.T) {
	// "netto marken-discount" is longer but carries lower priority than
	// a REWE hit on the same receipt
	lines := []string{"Netto Marken-Discount", "ehemals REWE"}
	m := Resolve(lines, testLocale())
	if m == nil || m.Store.Name != "REWE" {
		t.Fatalf("expected higher-priority REWE, got %+v", m)
	}
}

func TestResolve_NoMatchIsNil(t *testing.T) {
	lines := []string{"Unbekannter Laden", "Irgendwo 7"}
	if m := Resolve(lines, testLocale()); m != nil {
		t.Fatalf("expected nil, got %+v", m)
	}
}

func TestResolve_ScanLimitRespected(t *testing.T) {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = "Artikel 1,99"
	}
	lines[25] = "REWE Markt"
	loc := testLocale()
	loc.Extractors.StoreScanLimit = 10
	if m := Resolve(lines, loc); m != nil {
		t.Fatalf("match beyond scan limit must be ignored, got %+v", m)
	}
}

func TestGuessMerchant(t *testing.T) {
	lines := []string{
		"Tel. 030/1234567",
		"Feinkost Müller",
		"Hauptstr. 12",
	}
	name, ok := GuessMerchant(lines, []string{"tel."})
	if !ok || name != "Feinkost Müller" {
		t.Fatalf("expected guessed merchant, got %q ok=%v", name, ok)
	}
}

func TestGuessMerchant_NothingUsable(t *testing.T) {
	lines := []string{"Tel. 030/1234567", "12345", "*** ***"}
	if name, ok := GuessMerchant(lines, []string{"tel."}); ok {
		t.Fatalf("expected no guess, got %q", name)
	}
}
