// Package localepack loads and compiles per-locale parsing rules from
// embedded YAML configs, plus optional store overrides layered on top.
// It prepares keyword sets, regex templates and number formats for the
// downstream extraction stages
package localepack

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"bonscan/internal/core/money"
	perr "bonscan/internal/platform/errors"
)

//go:embed configs/*.yaml
var embedded embed.FS

// ReplaceSentinel as the first element of a list field in a store override
// replaces the locale's list wholesale instead of extending it
const ReplaceSentinel = "$replace"

// Currency describes how a locale prints amounts
type Currency struct {
	Code           string `yaml:"code" validate:"required"`
	Symbol         string `yaml:"symbol" validate:"required"`
	DecimalSep     string `yaml:"decimal_separator" validate:"required,oneof=0x2C ."`
	ThousandsSep   string `yaml:"thousands_separator" validate:"omitempty,oneof=0x2C . ' '"`
	SymbolPosition string `yaml:"symbol_position" validate:"omitempty,oneof=before after"`
}

// Keywords are the classification keyword sets for one locale
type Keywords struct {
	Total    []string `yaml:"total"`
	Discount []string `yaml:"discount"`
	Deposit  []string `yaml:"deposit"`
	Noise    []string `yaml:"noise"`
	Payment  []string `yaml:"payment"`
	Rounding []string `yaml:"rounding"`
}

// Extractors carries stage tunables a locale may adjust
type Extractors struct {
	StoreScanLimit  int `yaml:"store_scan_limit"`
	TotalScanWindow int `yaml:"total_scan_window"`
}

// Override is the data-only patch a store applies to its locale.
// Scalar fields replace unconditionally; list fields extend unless they
// start with ReplaceSentinel. Store configs never contain logic
type Override struct {
	Currency           *Currency `yaml:"currency"`
	DateFormats        []string  `yaml:"date_formats"`
	Keywords           Keywords  `yaml:"keywords"`
	WeightPatterns     []string  `yaml:"weight_patterns"`
	TaxPatterns        []string  `yaml:"tax_patterns"`
	TaxClassesInverted *bool     `yaml:"tax_classes_inverted"`
	RoundingUnit       *string   `yaml:"rounding_unit"`
}

// Store is one retailer's detection rule plus its optional override
type Store struct {
	Name     string    `yaml:"name" validate:"required"`
	Brands   []string  `yaml:"brands" validate:"min=1"`
	Aliases  []string  `yaml:"aliases"`
	Priority int       `yaml:"priority"`
	Override *Override `yaml:"override"`
}

// Locale is the full base ruleset for one country/language
type Locale struct {
	Code     string `yaml:"code" validate:"required,locale_code"`
	Name     string `yaml:"name" validate:"required"`
	Language string `yaml:"language"`
	Region   string `yaml:"region"`
	RTL      bool   `yaml:"rtl"`

	Currency    Currency `yaml:"currency" validate:"required"`
	DateFormats []string `yaml:"date_formats" validate:"min=1"`
	Keywords    Keywords `yaml:"keywords"`

	WeightPatterns []string `yaml:"weight_patterns"`
	TaxPatterns    []string `yaml:"tax_patterns"`

	// advisory only: surfaced as metadata, never used to derive a rate
	TaxClassesInverted bool `yaml:"tax_classes_inverted"`

	// coarsest unit the payable total is rounded to, e.g. "0.05"; empty
	// means line-item precision
	RoundingUnit string `yaml:"rounding_unit"`

	Extractors Extractors `yaml:"extractors"`
	Stores     []Store    `yaml:"stores"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// xx_XX, as in de_DE or pl_PL
	codeRe := regexp.MustCompile(`^[a-z]{2}_[A-Z]{2}$`)
	_ = v.RegisterValidation("locale_code", func(fl validator.FieldLevel) bool {
		return codeRe.MatchString(fl.Field().String())
	})
	return v
}

// Registry holds all loaded locales keyed by code
type Registry struct {
	locales map[string]Locale
}

// LoadEmbedded parses and validates every YAML config shipped with the
// binary
func LoadEmbedded() (*Registry, error) {
	return loadFS(embedded, "configs")
}

// LoadDir loads locale configs from an external directory, for deployments
// that patch rules without rebuilding
func LoadDir(dir string) (*Registry, error) {
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, root string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "read locale config dir %q", root)
	}

	reg := &Registry{locales: make(map[string]Locale, len(entries))}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		raw, err := fs.ReadFile(fsys, filepath.Join(root, e.Name()))
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "read locale config %q", e.Name())
		}
		var loc Locale
		if err := yaml.Unmarshal(raw, &loc); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "parse locale config %q", e.Name())
		}
		if err := validate.Struct(loc); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "invalid locale config %q", e.Name())
		}
		reg.locales[loc.Code] = loc
	}
	if len(reg.locales) == 0 {
		return nil, perr.Configf("no locale configs found under %q", root)
	}
	return reg, nil
}

// Get returns the locale for code
func (r *Registry) Get(code string) (Locale, error) {
	loc, ok := r.locales[code]
	if !ok {
		return Locale{}, perr.NotFoundf("locale %q not configured", code)
	}
	return loc, nil
}

// Codes lists configured locale codes in stable order
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.locales))
	for c := range r.locales {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// All returns every configured locale
func (r *Registry) All() []Locale {
	out := make([]Locale, 0, len(r.locales))
	for _, c := range r.Codes() {
		out = append(out, r.locales[c])
	}
	return out
}

// MoneyFormat converts a currency config into the money package's format
func (c Currency) MoneyFormat() money.Format {
	return money.Format{
		DecimalSep:   c.DecimalSep,
		ThousandsSep: c.ThousandsSep,
		Symbol:       c.Symbol,
		Code:         c.Code,
	}
}
