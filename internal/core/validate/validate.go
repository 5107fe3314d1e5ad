// Package validate cross-checks the classified items against the printed
// total. The checksum is the pipeline's quality gate: a pass means the
// extraction is arithmetically consistent, a fail means something was
// misread and the caller should treat the items as suspect
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bonscan/internal/core/classify"
	"bonscan/internal/core/localepack"
	"bonscan/internal/core/metadata"
	"bonscan/internal/core/money"
	"bonscan/internal/platform/logger"
)

// Tolerance absorbs one-cent rounding drift between printed line totals
// and the printed sum
var Tolerance = decimal.RequireFromString("0.05")

// Result is the checksum outcome with its full arithmetic trail
type Result struct {
	Passed          bool
	ItemsSum        decimal.Decimal
	DiscountsSum    decimal.Decimal
	CalculatedTotal decimal.Decimal
	Difference      decimal.Decimal
	PerClass        map[string]decimal.Decimal
	Warnings        []string
	FailureReason   string
}

// Check sums purchases and discounts and compares against the printed
// total within Tolerance. Tax-class sums are compared against the printed
// tax table as warnings only, since table OCR is unreliable
func Check(items []classify.Item, meta metadata.Meta, cfg *localepack.Merged) Result {
	return CheckWithTolerance(items, meta, cfg, Tolerance)
}

// CheckWithTolerance is Check with a caller-supplied tolerance, for
// deployments that loosen the gate on known-noisy OCR sources
func CheckWithTolerance(items []classify.Item, meta metadata.Meta, cfg *localepack.Merged, tol decimal.Decimal) Result {
	res := Result{PerClass: make(map[string]decimal.Decimal)}

	for _, it := range items {
		if it.IsDiscount {
			res.DiscountsSum = res.DiscountsSum.Add(it.TotalPrice)
			continue
		}
		res.ItemsSum = res.ItemsSum.Add(it.TotalPrice)
		if it.TaxClass != "" {
			res.PerClass[it.TaxClass] = res.PerClass[it.TaxClass].Add(it.TotalPrice)
		}
	}

	res.CalculatedTotal = res.ItemsSum.Add(res.DiscountsSum)
	if meta.RoundingSeen && cfg.Locale.RoundingUnit != "" {
		adjusted := roundToUnit(res.CalculatedTotal, cfg.Locale.RoundingUnit)
		// the rounding line prints its own amount; when its magnitude
		// disagrees with the adjustment we applied, one of the two was
		// misread. Magnitudes only: chains print the sign inconsistently
		if !meta.RoundingAmount.IsZero() {
			adj := adjusted.Sub(res.CalculatedTotal)
			if adj.Abs().Sub(meta.RoundingAmount.Abs()).Abs().GreaterThan(tol) {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"printed rounding %s disagrees with applied adjustment %s",
					meta.RoundingAmount.StringFixed(2), adj.StringFixed(2),
				))
			}
		}
		res.CalculatedTotal = adjusted
	}

	res.Difference = meta.Total.Sub(res.CalculatedTotal).Abs()
	res.Passed = res.Difference.LessThanOrEqual(tol)
	if !res.Passed {
		res.FailureReason = fmt.Sprintf(
			"calculated %s differs from printed total %s by %s (items %s, discounts %s)",
			res.CalculatedTotal.StringFixed(2), meta.Total.StringFixed(2),
			res.Difference.StringFixed(2),
			res.ItemsSum.StringFixed(2), res.DiscountsSum.StringFixed(2),
		)
	}

	res.Warnings = append(res.Warnings, classWarnings(res.PerClass, meta.TaxRows, cfg)...)

	logger.Named("validate").Debug().
		Bool("passed", res.Passed).
		Str("difference", res.Difference.StringFixed(2)).
		Int("warnings", len(res.Warnings)).
		Msg("checksum checked")
	return res
}

// classWarnings compares per-class item sums with the tax table's brutto
// column. Advisory only: class letters invert between chains and the
// table is often the worst-printed part of the receipt
func classWarnings(perClass map[string]decimal.Decimal, rows []metadata.TaxRow, cfg *localepack.Merged) []string {
	if len(rows) == 0 || len(perClass) == 0 {
		return nil
	}
	var out []string
	for _, row := range rows {
		sum, ok := perClass[row.Class]
		if !ok {
			continue
		}
		brutto, err := money.Parse(row.Brutto, cfg.Format)
		if err != nil {
			continue
		}
		if sum.Sub(brutto).Abs().GreaterThan(Tolerance) {
			out = append(out, fmt.Sprintf(
				"tax class %s: items sum %s vs printed brutto %s",
				row.Class, sum.StringFixed(2), brutto.StringFixed(2),
			))
		}
	}
	return out
}

// roundToUnit rounds to the nearest multiple of unit, e.g. whole crowns
// for Czech cash totals
func roundToUnit(v decimal.Decimal, unit string) decimal.Decimal {
	u, err := decimal.NewFromString(unit)
	if err != nil || u.IsZero() {
		return v
	}
	return v.Div(u).Round(0).Mul(u)
}
