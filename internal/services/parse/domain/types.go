// Package domain holds the parse service's types and ports
package domain

import (
	"github.com/shopspring/decimal"

	"bonscan/internal/core/metadata"
)

// ParsedItem is one purchase, discount or deposit row
type ParsedItem struct {
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

// ReceiptMetadata is the receipt-level extraction outcome
type ReceiptMetadata struct {
	Merchant        string
	MerchantGuessed bool // true when no configured store matched
	Store           string
	Address         string
	Phone           string
	VATID           string
	Date            string
	Time            string
	PaymentMethod   string
	Currency        string // ISO code from the resolved locale, e.g. EUR
	Total           decimal.Decimal
	TaxRows         []metadata.TaxRow
	// TaxClassesInverted flags chains whose class letters swap the usual
	// rate assignment, so consumers don't misread the tax table
	TaxClassesInverted bool
}

// ValidationResult is the checksum outcome carried to the caller
type ValidationResult struct {
	Passed          bool
	ItemsSum        decimal.Decimal
	DiscountsSum    decimal.Decimal
	CalculatedTotal decimal.Decimal
	Difference      decimal.Decimal
	Warnings        []string
	FailureReason   string
}

// PipelineResult is everything one receipt produced, returned even when
// the checksum fails so callers can inspect the partial extraction
type PipelineResult struct {
	ReceiptID        string
	Locale           string
	LocaleConfidence float64
	Lines            []string
	Items            []ParsedItem
	Metadata         ReceiptMetadata
	Validation       ValidationResult
	Unrecognized     int
	Dropped          int
}
