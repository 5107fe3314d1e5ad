// Package classify walks the reconstructed lines and turns them into
// purchase items, discounts and deposits. Rules apply in a fixed priority
// so that a discount keyword beats the generic trailing-price rule and a
// noise keyword beats everything
package classify

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"bonscan/internal/core/localepack"
	"bonscan/internal/core/money"
	"bonscan/internal/core/normalize"
	"bonscan/internal/platform/logger"
)

// Item is one classified receipt line carrying an amount
type Item struct {
	RawName    string
	Quantity   decimal.NullDecimal
	Unit       string
	UnitPrice  decimal.NullDecimal
	TotalPrice decimal.Decimal
	TaxClass   string
	IsDiscount bool
	IsDeposit  bool
	LineIndex  int
	Confidence float64
}

// Result is the classification outcome plus its rejects
type Result struct {
	Items        []Item
	Unrecognized []int  // priced lines no rule accepted, by index
	Dropped      []Item // removed by the price sanity guard
}

var (
	// explicit quantity marker: "2 x 1,99", "3x0.50"
	qtyMarkerRe = regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{1,3})?)\s*[x×*]\s*(\d{1,4}[.,]\d{2})`)
	// trailing tax class letter after the price, e.g. "1,09 A" or "1,09 B*"
	taxClassRe = regexp.MustCompile(`^([A-Za-z])\*?$`)
	unitRe     = regexp.MustCompile(`(?i)\b(kg|g|lb|oz|l|ml|szt|stk|ks|ud)\b`)
)

// markerlessSlack bounds qty*unit vs printed total for patterns without
// an explicit multiplication marker; anything looser is a coincidence
var markerlessSlack = decimal.RequireFromString("0.02")

// Classify applies the rule chain to every line not already claimed by
// metadata. skip holds claimed line indexes
func Classify(lines []string, skip map[int]bool, cfg *localepack.Merged, receiptTotal decimal.Decimal) Result {
	var res Result
	kw := cfg.Locale.Keywords

	for i, line := range lines {
		if skip[i] {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		folded := normalize.Fold(trimmed)

		// payment rows share the trailing-price shape of items but
		// describe tender, not purchases
		if normalize.ContainsAnyFold(folded, kw.Noise) != "" ||
			normalize.ContainsAnyFold(folded, kw.Payment) != "" ||
			normalize.ContainsAnyFold(folded, kw.Total) != "" ||
			normalize.ContainsAnyFold(folded, kw.Rounding) != "" {
			continue
		}
		if isTaxRow(trimmed, cfg) {
			continue
		}

		if it, ok := weightedItem(trimmed, i, cfg); ok {
			res.Items = append(res.Items, it)
			continue
		}

		price := money.Last(trimmed, cfg.Format)
		if price == nil {
			continue
		}

		switch {
		case normalize.ContainsAnyFold(folded, kw.Discount) != "":
			res.Items = append(res.Items, discountItem(trimmed, price, i))
		case normalize.ContainsAnyFold(folded, kw.Deposit) != "":
			res.Items = append(res.Items, depositItem(trimmed, price, i))
		case price.Amount.IsNegative():
			// an unexplained negative amount still reduces the bill
			res.Items = append(res.Items, discountItem(trimmed, price, i))
		default:
			if it, ok := genericItem(trimmed, price, i, cfg); ok {
				res.Items = append(res.Items, it)
			} else {
				res.Unrecognized = append(res.Unrecognized, i)
			}
		}
	}

	res.Items, res.Dropped = sanityGuard(res.Items, receiptTotal)
	if len(res.Dropped) > 0 {
		logger.Named("classify").Warn().
			Int("dropped", len(res.Dropped)).
			Msg("items removed by price sanity guard")
	}
	return res
}

func isTaxRow(line string, cfg *localepack.Merged) bool {
	for _, re := range cfg.TaxRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// weightedItem tries the locale's weight patterns. Group one is the
// quantity, group two the unit price; a third group, when present, is the
// printed row total of a marker-less pattern and must agree with
// qty*unit, otherwise the match is rejected as coincidence
func weightedItem(line string, idx int, cfg *localepack.Merged) (Item, bool) {
	for _, re := range cfg.WeightRes {
		m := re.FindStringSubmatch(line)
		if m == nil || len(m) < 3 {
			continue
		}
		qty, err := parseNumber(m[1])
		if err != nil {
			continue
		}
		unitPrice, err := parseNumber(m[2])
		if err != nil {
			continue
		}

		var total decimal.Decimal
		if len(m) >= 4 && m[3] != "" {
			printed, err := parseNumber(m[3])
			if err != nil {
				continue
			}
			if qty.GreaterThanOrEqual(decimal.NewFromInt(10)) {
				continue
			}
			if qty.Mul(unitPrice).Sub(printed).Abs().GreaterThan(markerlessSlack) {
				continue
			}
			total = printed
		} else if last := money.Last(line, cfg.Format); last != nil && !last.Amount.Equal(unitPrice) {
			total = last.Amount
		} else {
			total = qty.Mul(unitPrice).Round(2)
		}

		it := Item{
			RawName:    nameBefore(line, re.FindStringIndex(line)[0]),
			Quantity:   decimal.NullDecimal{Decimal: qty, Valid: true},
			UnitPrice:  decimal.NullDecimal{Decimal: unitPrice, Valid: true},
			TotalPrice: total,
			LineIndex:  idx,
			Confidence: 0.85,
		}
		if u := unitRe.FindString(line); u != "" {
			it.Unit = strings.ToLower(u)
		}
		return it, true
	}
	return Item{}, false
}

func discountItem(line string, price *money.Price, idx int) Item {
	amount := price.Amount
	if amount.IsPositive() {
		amount = amount.Neg()
	}
	return Item{
		RawName:    nameBefore(line, price.Start),
		TotalPrice: amount,
		IsDiscount: true,
		LineIndex:  idx,
		Confidence: 0.8,
	}
}

func depositItem(line string, price *money.Price, idx int) Item {
	return Item{
		RawName:    nameBefore(line, price.Start),
		TotalPrice: price.Amount,
		IsDeposit:  true,
		LineIndex:  idx,
		Confidence: 0.8,
	}
}

// genericItem handles the default shape: a name, an optional explicit
// "qty x unit" marker, a trailing total and an optional tax class letter
// after it. A bare amount with no marker never yields a quantity
func genericItem(line string, price *money.Price, idx int, cfg *localepack.Merged) (Item, bool) {
	name := nameBefore(line, price.Start)
	it := Item{
		RawName:    name,
		TotalPrice: price.Amount,
		LineIndex:  idx,
		Confidence: 0.75,
	}

	rest := strings.TrimSpace(line[price.End:])
	if m := taxClassRe.FindStringSubmatch(rest); m != nil {
		it.TaxClass = strings.ToUpper(m[1])
	} else if rest != "" && !strings.HasPrefix(rest, cfg.Format.Symbol) &&
		!strings.EqualFold(rest, cfg.Format.Code) {
		// unparsed trailing text makes the price suspect
		it.Confidence = 0.6
	}

	if m := qtyMarkerRe.FindStringSubmatch(line[:price.Start]); m != nil {
		qty, qerr := parseNumber(m[1])
		unitPrice, uerr := parseNumber(m[2])
		if qerr == nil && uerr == nil {
			it.Quantity = decimal.NullDecimal{Decimal: qty, Valid: true}
			it.UnitPrice = decimal.NullDecimal{Decimal: unitPrice, Valid: true}
		}
	}

	if it.RawName == "" {
		return Item{}, false
	}
	return it, true
}

// sanityGuard drops purchase items implausibly large next to the receipt
// total, a common OCR artifact when a decimal separator is lost. Small
// receipts skip the guard entirely; discounts and deposits are exempt
func sanityGuard(items []Item, total decimal.Decimal) (kept, dropped []Item) {
	if total.LessThan(decimal.NewFromInt(20)) {
		return items, nil
	}
	var pct decimal.Decimal
	switch {
	case total.LessThan(decimal.NewFromInt(50)):
		pct = decimal.RequireFromString("0.5")
	case len(items) <= 5:
		pct = decimal.RequireFromString("0.4")
	default:
		pct = decimal.RequireFromString("0.25")
	}
	limit := total.Mul(pct)

	for _, it := range items {
		if !it.IsDiscount && !it.IsDeposit && it.TotalPrice.GreaterThan(limit) {
			dropped = append(dropped, it)
			continue
		}
		kept = append(kept, it)
	}
	return kept, dropped
}

// nameBefore trims the text left of a numeric span into an item name
func nameBefore(line string, start int) string {
	if start > len(line) {
		start = len(line)
	}
	name := strings.TrimSpace(line[:start])
	name = strings.TrimRight(name, " .:-*")
	// drop a trailing qty marker from the display name
	if loc := qtyMarkerRe.FindStringIndex(name); loc != nil && loc[1] >= len(name)-1 {
		name = strings.TrimSpace(name[:loc[0]])
		name = strings.TrimRight(name, " .:-*")
	}
	return name
}

func parseNumber(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
}
