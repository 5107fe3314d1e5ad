// Package metadata pulls receipt-level facts out of reconstructed lines:
// the payable total, purchase date and time, tax table rows, payment
// method and header contact details. Everything except the total is
// best-effort; a missing total aborts the receipt because validation is
// impossible without it
package metadata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bonscan/internal/core/localepack"
	"bonscan/internal/core/money"
	"bonscan/internal/core/normalize"
	perr "bonscan/internal/platform/errors"
	"bonscan/internal/platform/logger"
)

const defaultTotalWindow = 10

// TaxRow is one row of the printed tax table, stored verbatim. Rates and
// amounts are not recomputed here; validation reads them as advisory
type TaxRow struct {
	Class     string
	Rate      string
	Netto     string
	Tax       string
	Brutto    string
	LineIndex int
}

// Meta is everything extracted about the receipt as a whole
type Meta struct {
	Total           decimal.Decimal
	TotalLine       int
	TotalConfidence float64

	Date           string // ISO YYYY-MM-DD, empty when not found
	DateConfidence float64
	Time           string // HH:MM or HH:MM:SS, empty when not found

	TaxRows []TaxRow

	Merchant      string
	Address       string
	Phone         string
	VATID         string
	PaymentMethod string

	RoundingSeen   bool
	RoundingAmount decimal.Decimal

	// line indexes claimed by metadata; the classifier must skip them
	Consumed map[int]bool
}

var (
	timeRe  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::(\d{2}))?\b`)
	phoneRe = regexp.MustCompile(`(?i)(?:tel\.?|telefon|phone)[:\s]*([+(]?\d[\d\s/()-]{5,})`)
	vatRe   = regexp.MustCompile(`(?i)\b(?:ust-?id(?:nr)?\.?|nip|di[čc]|i[čc]o|cif|nif|vat)\b[:.\s]*([A-Z]{0,2}[\d\s./-]{7,15})`)
	// street line: letters then a house number, possibly with a suffix
	addressRe = regexp.MustCompile(`^\D{3,}\s\d{1,4}[a-zA-Z]?\b`)
	amountRe  = regexp.MustCompile(`\d[.,]\d{2}(\D|$)`)
)

// Extract runs every metadata scan over the reconstructed lines. The only
// hard failure is a missing total, and even then the rest of the metadata
// is returned alongside the error
func Extract(lines []string, cfg *localepack.Merged) (Meta, error) {
	meta := Meta{Consumed: make(map[int]bool)}

	extractDate(lines, cfg, &meta)
	extractTime(lines, &meta)
	extractTaxRows(lines, cfg, &meta)
	extractRounding(lines, cfg, &meta)
	extractContacts(lines, &meta)

	if err := extractTotal(lines, cfg, &meta); err != nil {
		return meta, err
	}
	extractPayment(lines, cfg, &meta)

	logger.Named("metadata").Debug().
		Str("total", meta.Total.StringFixed(2)).
		Str("date", meta.Date).
		Int("tax_rows", len(meta.TaxRows)).
		Msg("metadata extracted")
	return meta, nil
}

// extractTotal scans the bottom window for a total keyword next to a
// price. The lowest such line wins; amounts further right win within a
// line. Noise lines are excluded first so "subtotal" cannot satisfy a
// "total" keyword
func extractTotal(lines []string, cfg *localepack.Merged, meta *Meta) error {
	window := cfg.Locale.Extractors.TotalScanWindow
	if window <= 0 {
		window = defaultTotalWindow
	}
	start := len(lines) - window
	if start < 0 {
		start = 0
	}

	found := false
	for i := start; i < len(lines); i++ {
		folded := normalize.Fold(lines[i])
		if normalize.ContainsAnyFold(folded, cfg.Locale.Keywords.Noise) != "" {
			continue
		}
		if normalize.ContainsAnyFold(folded, cfg.Locale.Keywords.Total) == "" {
			continue
		}
		amount, ok := largestAmount(lines[i], cfg.Format)
		if !ok {
			continue
		}
		// lowest line wins; within a line the largest magnitude wins so
		// a stray per-item figure cannot shadow the sum
		if !found || i >= meta.TotalLine {
			meta.Total = amount
			meta.TotalLine = i
			meta.TotalConfidence = 0.9
			found = true
		}
	}
	if !found {
		return perr.NoTotalf("no total keyword with an amount in the bottom %d lines", window)
	}
	meta.Consumed[meta.TotalLine] = true
	return nil
}

func largestAmount(line string, f money.Format) (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, p := range money.FindAll(line, f) {
		if !found || p.Amount.Abs().GreaterThan(best.Abs()) {
			best = p.Amount
			found = true
		}
	}
	return best, found
}

func extractDate(lines []string, cfg *localepack.Merged, meta *Meta) {
	for _, tpl := range cfg.Dates {
		for i, line := range lines {
			m := tpl.Re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			var y, mo, d string
			switch tpl.Order {
			case localepack.OrderYMD:
				y, mo, d = m[1], m[2], m[3]
			case localepack.OrderMDY:
				mo, d, y = m[1], m[2], m[3]
			default:
				d, mo, y = m[1], m[2], m[3]
			}
			if tpl.ShortYear {
				y = "20" + y
			}
			if !plausibleDate(y, mo, d) {
				continue
			}
			meta.Date = y + "-" + mo + "-" + d
			meta.DateConfidence = 0.9
			if tpl.ShortYear {
				meta.DateConfidence = 0.7
			}
			// a printed time next to the date corroborates it
			if timeRe.MatchString(lines[i]) {
				meta.DateConfidence += 0.05
			}
			meta.Consumed[i] = true
			return
		}
	}
}

func plausibleDate(y, mo, d string) bool {
	yi, _ := strconv.Atoi(y)
	mi, _ := strconv.Atoi(mo)
	di, _ := strconv.Atoi(d)
	return yi >= 2000 && yi <= 2099 && mi >= 1 && mi <= 12 && di >= 1 && di <= 31
}

func extractTime(lines []string, meta *Meta) {
	for i, line := range lines {
		m := timeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h > 23 || min > 59 {
			continue
		}
		t := m[1] + ":" + m[2]
		if len(m[1]) == 1 {
			t = "0" + t
		}
		if m[3] != "" {
			t += ":" + m[3]
		}
		meta.Time = t
		meta.Consumed[i] = true
		return
	}
}

// extractTaxRows matches the printed tax table. Groups are, in order,
// class, rate, netto, tax and brutto; values are kept verbatim
func extractTaxRows(lines []string, cfg *localepack.Merged, meta *Meta) {
	for i, line := range lines {
		for _, re := range cfg.TaxRes {
			m := re.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil || len(m) < 6 {
				continue
			}
			meta.TaxRows = append(meta.TaxRows, TaxRow{
				Class:     strings.TrimSpace(m[1]),
				Rate:      strings.TrimSpace(m[2]),
				Netto:     m[3],
				Tax:       m[4],
				Brutto:    m[5],
				LineIndex: i,
			})
			meta.Consumed[i] = true
			break
		}
	}
}

func extractRounding(lines []string, cfg *localepack.Merged, meta *Meta) {
	kws := cfg.Locale.Keywords.Rounding
	if len(kws) == 0 {
		return
	}
	for i, line := range lines {
		if normalize.ContainsAnyFold(normalize.Fold(line), kws) == "" {
			continue
		}
		meta.RoundingSeen = true
		if p := money.Last(line, cfg.Format); p != nil {
			meta.RoundingAmount = p.Amount
		}
		meta.Consumed[i] = true
		return
	}
}

func extractPayment(lines []string, cfg *localepack.Merged, meta *Meta) {
	// payment rows print below the total
	for i := len(lines) - 1; i >= 0; i-- {
		if i < meta.TotalLine {
			break
		}
		kw := normalize.ContainsAnyFold(normalize.Fold(lines[i]), cfg.Locale.Keywords.Payment)
		if kw == "" {
			continue
		}
		meta.PaymentMethod = kw
		meta.Consumed[i] = true
		return
	}
}

func extractContacts(lines []string, meta *Meta) {
	headerEnd := len(lines)
	if headerEnd > 8 {
		headerEnd = 8
	}
	for i, line := range lines {
		if meta.Phone == "" {
			if m := phoneRe.FindStringSubmatch(line); m != nil {
				meta.Phone = strings.TrimSpace(m[1])
				meta.Consumed[i] = true
			}
		}
		if meta.VATID == "" {
			if m := vatRe.FindStringSubmatch(line); m != nil {
				meta.VATID = strings.TrimSpace(m[1])
				meta.Consumed[i] = true
			}
		}
	}
	for i := 0; i < headerEnd; i++ {
		if meta.Consumed[i] {
			continue
		}
		if amountRe.MatchString(lines[i]) {
			continue
		}
		if addressRe.MatchString(strings.TrimSpace(lines[i])) {
			meta.Address = strings.TrimSpace(lines[i])
			meta.Consumed[i] = true
			break
		}
	}
}
