package validate

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bonscan/internal/core/classify"
	"bonscan/internal/core/localepack"
	"bonscan/internal/core/metadata"
)

func merged(t *testing.T, code string) *localepack.Merged {
	t.Helper()
	reg, err := localepack.LoadEmbedded()
	if err != nil {
		t.Fatalf("load locales: %v", err)
	}
	loc, err := reg.Get(code)
	if err != nil {
		t.Fatalf("get %s: %v", code, err)
	}
	m, err := localepack.Merge(loc, nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	return m
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(total string) classify.Item {
	return classify.Item{RawName: "Artikel", TotalPrice: d(total)}
}

func discount(total string) classify.Item {
	return classify.Item{RawName: "Rabatt", TotalPrice: d(total), IsDiscount: true}
}

func TestCheck_ExactSumPasses(t *testing.T) {
	items := []classify.Item{item("10.85"), discount("-0.30")}
	meta := metadata.Meta{Total: d("10.55")}
	res := Check(items, meta, merged(t, "de_DE"))
	if !res.Passed {
		t.Fatalf("expected pass: %+v", res)
	}
	if got := res.Difference.StringFixed(2); got != "0.00" {
		t.Fatalf("difference = %s, want 0.00", got)
	}
	if got := res.ItemsSum.StringFixed(2); got != "10.85" {
		t.Fatalf("items sum = %s", got)
	}
	if got := res.DiscountsSum.StringFixed(2); got != "-0.30" {
		t.Fatalf("discounts sum = %s", got)
	}
	if res.FailureReason != "" {
		t.Fatalf("unexpected failure reason %q", res.FailureReason)
	}
}

func TestCheck_ToleranceBoundary(t *testing.T) {
	items := []classify.Item{item("10.00")}
	within := Check(items, metadata.Meta{Total: d("10.05")}, merged(t, "de_DE"))
	if !within.Passed {
		t.Fatalf("0.05 difference must pass: %+v", within)
	}
	beyond := Check(items, metadata.Meta{Total: d("10.06")}, merged(t, "de_DE"))
	if beyond.Passed {
		t.Fatalf("0.06 difference must fail")
	}
	if beyond.FailureReason == "" {
		t.Fatalf("failed check must carry a reason")
	}
}

func TestCheck_RoundingAdjustment(t *testing.T) {
	items := []classify.Item{item("24.90")}
	meta := metadata.Meta{Total: d("25.00"), RoundingSeen: true}
	res := Check(items, meta, merged(t, "cs_CZ"))
	if !res.Passed {
		t.Fatalf("whole-crown rounding should reconcile: %+v", res)
	}
	if got := res.CalculatedTotal.StringFixed(2); got != "25.00" {
		t.Fatalf("calculated = %s, want 25.00", got)
	}
}

func TestCheck_PrintedRoundingAmountAgrees(t *testing.T) {
	items := []classify.Item{item("24.90")}
	meta := metadata.Meta{Total: d("25.00"), RoundingSeen: true, RoundingAmount: d("0.10")}
	res := Check(items, meta, merged(t, "cs_CZ"))
	if !res.Passed {
		t.Fatalf("expected pass: %+v", res)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("matching printed rounding must not warn: %v", res.Warnings)
	}
}

func TestCheck_PrintedRoundingAmountMismatchWarns(t *testing.T) {
	items := []classify.Item{item("24.90")}
	meta := metadata.Meta{Total: d("25.00"), RoundingSeen: true, RoundingAmount: d("0.50")}
	res := Check(items, meta, merged(t, "cs_CZ"))
	if !res.Passed {
		t.Fatalf("rounding disagreement is advisory, checksum still passes: %+v", res)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "rounding") {
		t.Fatalf("expected one rounding warning, got %v", res.Warnings)
	}
}

func TestCheck_RoundingIgnoredWithoutKeywordLine(t *testing.T) {
	items := []classify.Item{item("24.90")}
	meta := metadata.Meta{Total: d("25.00")}
	res := Check(items, meta, merged(t, "cs_CZ"))
	if res.Passed {
		t.Fatalf("rounding must not apply without a rounding line: %+v", res)
	}
}

func TestCheck_ClassMismatchWarnsOnly(t *testing.T) {
	it := item("1.09")
	it.TaxClass = "A"
	meta := metadata.Meta{
		Total:   d("1.09"),
		TaxRows: []metadata.TaxRow{{Class: "A", Rate: "19,00", Brutto: "5,00"}},
	}
	res := Check([]classify.Item{it}, meta, merged(t, "de_DE"))
	if !res.Passed {
		t.Fatalf("class mismatch must not fail the checksum: %+v", res)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "tax class A") {
		t.Fatalf("expected one class warning, got %v", res.Warnings)
	}
}

func TestCheck_ClassMatchNoWarning(t *testing.T) {
	it := item("1.09")
	it.TaxClass = "A"
	meta := metadata.Meta{
		Total:   d("1.09"),
		TaxRows: []metadata.TaxRow{{Class: "A", Rate: "19,00", Brutto: "1,09"}},
	}
	res := Check([]classify.Item{it}, meta, merged(t, "de_DE"))
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestCheck_NoItemsFailsGracefully(t *testing.T) {
	res := Check(nil, metadata.Meta{Total: d("10.00")}, merged(t, "de_DE"))
	if res.Passed {
		t.Fatalf("empty item list cannot reconcile a positive total")
	}
	if got := res.Difference.StringFixed(2); got != "10.00" {
		t.Fatalf("difference = %s, want 10.00", got)
	}
}

func TestCheck_DepositCountsTowardSum(t *testing.T) {
	dep := classify.Item{RawName: "Pfand", TotalPrice: d("0.25"), IsDeposit: true}
	items := []classify.Item{item("2.49"), dep}
	res := Check(items, metadata.Meta{Total: d("2.74")}, merged(t, "de_DE"))
	if !res.Passed {
		t.Fatalf("deposit must count toward the sum: %+v", res)
	}
}
