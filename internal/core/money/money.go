// Package money parses and formats monetary amounts under locale-specific
// separator conventions. All arithmetic uses decimal values so checksum
// comparisons are exact for representable two-decimal amounts
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	perr "bonscan/internal/platform/errors"
)

// Format describes how a locale prints amounts
type Format struct {
	DecimalSep   string // "," or "."
	ThousandsSep string // ".", "," or " "
	Symbol       string // "€", "zł", "$"
	Code         string // ISO code: EUR, PLN, USD
}

// Price is an amount found inside a line, with its raw token and offset
type Price struct {
	Amount decimal.Decimal
	Raw    string
	Start  int
	End    int
}

// priceToken matches a two-decimal amount with either separator. Boundary
// checks happen separately since Go's regexp has no lookaround; tokens glued
// to more digits or separators (OCR artifacts) are rejected there
var priceToken = regexp.MustCompile(`-?\d{1,6}(?:[., ]\d{3})*[.,]\d{2}`)

var (
	datePattern = regexp.MustCompile(`\d{2}[./]\d{2}[./]\d{2,4}`)
	timePattern = regexp.MustCompile(`\d{1,2}:\d{2}(:\d{2})?`)
)

// Parse normalizes a raw token according to f and parses it exactly.
// The thousands separator is stripped where it sits in grouping position,
// the decimal separator becomes ".". Malformed tokens return an error;
// callers skip the field and continue
func Parse(tok string, f Format) (decimal.Decimal, error) {
	s := strings.TrimSpace(tok)
	if s == "" {
		return decimal.Zero, perr.InvalidArgf("empty amount token")
	}
	s = stripThousands(s, f.ThousandsSep)
	// a separator that survived grouping removal while no decimal separator
	// is present is a misprinted decimal point; reinterpret it as one
	if f.ThousandsSep != "" && f.DecimalSep != "" &&
		strings.Contains(s, f.ThousandsSep) && !strings.Contains(s, f.DecimalSep) {
		s = strings.ReplaceAll(s, f.ThousandsSep, f.DecimalSep)
	}
	if f.DecimalSep != "" && f.DecimalSep != "." {
		s = strings.ReplaceAll(s, f.DecimalSep, ".")
	}
	// leftover separators mean the token disagrees with the locale format
	if strings.Count(s, ".") > 1 || strings.Contains(s, ",") || strings.Contains(s, " ") {
		return decimal.Zero, perr.InvalidArgf("malformed amount token %q", tok)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse amount %q", tok)
	}
	return d, nil
}

// stripThousands removes sep only where a group of exactly three digits
// follows, the grouping position. A separator trailed by two digits is a
// misprinted decimal point ("1.99" on a comma-decimal receipt) and must
// keep its place so the token still reads 1.99, not 199
func stripThousands(s, sep string) string {
	if sep == "" || !strings.Contains(s, sep) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], sep) {
			rest := s[i+len(sep):]
			if len(rest) >= 3 && isDigits(rest[:3]) && (len(rest) == 3 || !isDigits(rest[3:4])) {
				i += len(sep)
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// FormatAmount renders d using f's separators; the round-trip property
// Parse(FormatAmount(x)) == x holds for two-decimal values
func FormatAmount(d decimal.Decimal, f Format) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	if f.ThousandsSep != "" && len(intPart) > 3 {
		var b strings.Builder
		pre := len(intPart) % 3
		if pre > 0 {
			b.WriteString(intPart[:pre])
		}
		for i := pre; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteString(f.ThousandsSep)
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	dec := f.DecimalSep
	if dec == "" {
		dec = "."
	}
	out := intPart + dec + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// FindAll scans a line for price tokens left to right. Date and time
// fragments are masked first so "24.12.2025" or "18:05" never surface as
// amounts. Tokens that fail locale parsing are skipped
func FindAll(line string, f Format) []Price {
	if line == "" {
		return nil
	}
	masked := maskDateTime(line)

	var out []Price
	for _, m := range priceToken.FindAllStringIndex(masked, -1) {
		start, end := m[0], m[1]
		if !tokenBoundaryOK(masked, start, end) {
			continue
		}
		raw := line[start:end]
		amt, err := Parse(raw, f)
		if err != nil {
			continue
		}
		out = append(out, Price{Amount: amt, Raw: raw, Start: start, End: end})
	}
	return out
}

// tokenBoundaryOK rejects candidates glued to surrounding digits or
// separators, e.g. the "4,29" inside "1234,29" or "5.14,29"
func tokenBoundaryOK(s string, start, end int) bool {
	if start > 0 {
		prev := s[start-1]
		if prev >= '0' && prev <= '9' || prev == '.' || prev == ',' {
			return false
		}
	}
	if end < len(s) {
		next := s[end]
		if next >= '0' && next <= '9' {
			return false
		}
	}
	return true
}

// Last returns the rightmost price in the line, or nil. Receipt grammars
// put the line total at the right edge, so right-to-left wins
func Last(line string, f Format) *Price {
	ps := FindAll(line, f)
	if len(ps) == 0 {
		return nil
	}
	return &ps[len(ps)-1]
}

// maskDateTime blanks date/time fragments in place so the price scanner
// cannot pick digits out of them. Offsets are preserved
func maskDateTime(line string) string {
	b := []byte(line)
	for _, re := range []*regexp.Regexp{datePattern, timePattern} {
		for _, m := range re.FindAllStringIndex(line, -1) {
			for i := m[0]; i < m[1]; i++ {
				b[i] = '#'
			}
		}
	}
	return string(b)
}
