// Package service implements the parse service: the six-stage pipeline
// from an upstream OCR payload to validated items
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bonscan/internal/core/classify"
	"bonscan/internal/core/layout"
	"bonscan/internal/core/locale"
	"bonscan/internal/core/localepack"
	"bonscan/internal/core/metadata"
	"bonscan/internal/core/ocr"
	"bonscan/internal/core/store"
	"bonscan/internal/core/validate"
	"bonscan/internal/platform/config"
	perr "bonscan/internal/platform/errors"
	"bonscan/internal/platform/logger"
	"bonscan/internal/services/parse/domain"
)

// Config for the parse service
type Config struct {
	// ForcedLocale skips resolution when the caller already knows the
	// country, e.g. from the user's account settings
	ForcedLocale string
	// ConfigDir loads locale rules from disk instead of the embedded set
	ConfigDir string
	// StoreScanLimit and TotalScanWindow override the per-locale
	// extractor tunables when > 0
	StoreScanLimit  int
	TotalScanWindow int
	// Tolerance overrides the checksum gate when > 0
	Tolerance float64
}

// FromConfig reads service settings from the PARSE_ env namespace
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("PARSE_")
	return Config{
		ForcedLocale:    c.MayString("LOCALE", ""),
		ConfigDir:       c.MayString("CONFIG_DIR", ""),
		StoreScanLimit:  c.MayInt("STORE_SCAN_LIMIT", 0),
		TotalScanWindow: c.MayInt("TOTAL_SCAN_WINDOW", 0),
		Tolerance:       c.MayFloat("TOLERANCE", 0),
	}
}

// Service implements domain.ParserPort
type Service struct {
	Reg *localepack.Registry
	Cfg Config
}

// New constructs the parse service, loading locale rules per Cfg
func New(cfg Config) (*Service, error) {
	var (
		reg *localepack.Registry
		err error
	)
	if cfg.ConfigDir != "" {
		reg, err = localepack.LoadDir(cfg.ConfigDir)
	} else {
		reg, err = localepack.LoadEmbedded()
	}
	if err != nil {
		return nil, err
	}
	return &Service{Reg: reg, Cfg: cfg}, nil
}

// Parse runs layout reconstruction, locale and store resolution, metadata
// extraction, line classification and checksum validation. A checksum
// failure returns the populated result together with the error
func (s *Service) Parse(ctx context.Context, in ocr.Result) (domain.PipelineResult, error) {
	res := domain.PipelineResult{ReceiptID: uuid.NewString()}

	texts := layout.Texts(layout.Reconstruct(in.Words))
	if len(texts) == 0 {
		texts = splitFullText(in.FullText)
	}
	res.Lines = texts
	if len(texts) == 0 {
		return res, perr.InvalidArgf("empty OCR payload: no words and no full text")
	}

	loc, conf, err := s.resolveLocale(texts, in.FullText)
	if err != nil {
		return res, err
	}
	res.Locale = loc.Code
	res.LocaleConfidence = conf
	if s.Cfg.StoreScanLimit > 0 {
		loc.Extractors.StoreScanLimit = s.Cfg.StoreScanLimit
	}
	if s.Cfg.TotalScanWindow > 0 {
		loc.Extractors.TotalScanWindow = s.Cfg.TotalScanWindow
	}

	ctx = logger.WithReceipt(ctx, res.ReceiptID, loc.Code)
	log := logger.C(ctx)

	match := store.Resolve(texts, loc)
	var st *localepack.Store
	if match != nil {
		st = match.Store
		res.Metadata.Store = match.Store.Name
		res.Metadata.Merchant = match.Store.Name
	}

	cfg, err := localepack.Merge(loc, st)
	if err != nil {
		return res, err
	}
	res.Metadata.Currency = cfg.Format.Code
	res.Metadata.TaxClassesInverted = cfg.Locale.TaxClassesInverted

	meta, err := metadata.Extract(texts, cfg)
	fillMetadata(&res.Metadata, meta)
	if err != nil {
		return res, err
	}
	if res.Metadata.Merchant == "" {
		if name, ok := store.GuessMerchant(texts, loc.Keywords.Noise); ok {
			res.Metadata.Merchant = name
			res.Metadata.MerchantGuessed = true
		}
	}

	cls := classify.Classify(texts, meta.Consumed, cfg, meta.Total)
	res.Items = toDomainItems(cls.Items)
	res.Unrecognized = len(cls.Unrecognized)
	res.Dropped = len(cls.Dropped)

	tol := validate.Tolerance
	if s.Cfg.Tolerance > 0 {
		tol = decimal.NewFromFloat(s.Cfg.Tolerance)
	}
	check := validate.CheckWithTolerance(cls.Items, meta, cfg, tol)
	res.Validation = domain.ValidationResult{
		Passed:          check.Passed,
		ItemsSum:        check.ItemsSum,
		DiscountsSum:    check.DiscountsSum,
		CalculatedTotal: check.CalculatedTotal,
		Difference:      check.Difference,
		Warnings:        check.Warnings,
		FailureReason:   check.FailureReason,
	}

	log.Info().
		Str("store", res.Metadata.Store).
		Int("items", len(res.Items)).
		Bool("checksum", check.Passed).
		Msg("receipt parsed")

	if !check.Passed {
		return res, perr.Checksumf("%s", check.FailureReason)
	}
	return res, nil
}

func (s *Service) resolveLocale(texts []string, fullText string) (localepack.Locale, float64, error) {
	if s.Cfg.ForcedLocale != "" {
		loc, err := s.Reg.Get(s.Cfg.ForcedLocale)
		if err != nil {
			return localepack.Locale{}, 0, err
		}
		return loc, 1.0, nil
	}
	m, err := locale.Resolve(texts, fullText, s.Reg)
	if err != nil {
		return localepack.Locale{}, 0, err
	}
	loc, err := s.Reg.Get(m.Code)
	if err != nil {
		return localepack.Locale{}, 0, err
	}
	return loc, m.Confidence, nil
}

func fillMetadata(dst *domain.ReceiptMetadata, meta metadata.Meta) {
	dst.Address = meta.Address
	dst.Phone = meta.Phone
	dst.VATID = meta.VATID
	dst.Date = meta.Date
	dst.Time = meta.Time
	dst.PaymentMethod = meta.PaymentMethod
	dst.Total = meta.Total
	dst.TaxRows = meta.TaxRows
}

func toDomainItems(items []classify.Item) []domain.ParsedItem {
	out := make([]domain.ParsedItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.ParsedItem{
			RawName:    it.RawName,
			Quantity:   it.Quantity,
			Unit:       it.Unit,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			TaxClass:   it.TaxClass,
			IsDiscount: it.IsDiscount,
			IsDeposit:  it.IsDeposit,
			LineIndex:  it.LineIndex,
			Confidence: it.Confidence,
		})
	}
	return out
}

func splitFullText(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
