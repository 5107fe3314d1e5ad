package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemDTO is one row in the downstream payload. The first block mirrors
// the consumer's item record: price is the unit price, total the line
// total, both plain JSON numbers. The remaining fields are additive
type ItemDTO struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Price    *float64 `json:"price"`
	Total    float64  `json:"total"`
	Date     string   `json:"date,omitempty"`

	Unit       string  `json:"unit,omitempty"`
	TaxClass   string  `json:"tax_class,omitempty"`
	IsDiscount bool    `json:"is_discount"`
	IsDeposit  bool    `json:"is_deposit"`
	LineIndex  int     `json:"line_index"`
	Confidence float64 `json:"confidence"`
}

// ReceiptDTO is the frozen downstream contract consumed by the budgeting
// backend. Fields are never renamed, retyped or removed; new fields are
// appended only
type ReceiptDTO struct {
	ReceiptID      string             `json:"receipt_id"`
	Items          []ItemDTO          `json:"items"`
	TotalAmount    *float64           `json:"total_amount,omitempty"`
	Merchant       string             `json:"merchant,omitempty"`
	StoreAddress   string             `json:"store_address,omitempty"`
	Date           string             `json:"date,omitempty"`
	Time           string             `json:"time,omitempty"`
	PaymentMethod  string             `json:"payment_method,omitempty"`
	OCRText        string             `json:"ocr_text,omitempty"`
	DetectedLocale string             `json:"detected_locale,omitempty"`
	ChecksumPassed bool               `json:"checksum_passed"`
	Warnings       []string           `json:"warnings,omitempty"`
	Metrics        map[string]float64 `json:"metrics"`
}

// ToDTO flattens a pipeline result into the downstream payload
func ToDTO(res PipelineResult, ocrText string) ReceiptDTO {
	id := res.ReceiptID
	if id == "" {
		id = uuid.NewString()
	}

	items := make([]ItemDTO, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, ItemDTO{
			Name:       it.RawName,
			Quantity:   nullFloat(it.Quantity),
			Price:      nullFloat(it.UnitPrice),
			Total:      it.TotalPrice.InexactFloat64(),
			Unit:       it.Unit,
			TaxClass:   it.TaxClass,
			IsDiscount: it.IsDiscount,
			IsDeposit:  it.IsDeposit,
			LineIndex:  it.LineIndex,
			Confidence: it.Confidence,
		})
	}

	diff, _ := res.Validation.Difference.Float64()
	dto := ReceiptDTO{
		ReceiptID:      id,
		Items:          items,
		Merchant:       res.Metadata.Merchant,
		StoreAddress:   res.Metadata.Address,
		Date:           res.Metadata.Date,
		Time:           res.Metadata.Time,
		PaymentMethod:  res.Metadata.PaymentMethod,
		OCRText:        ocrText,
		DetectedLocale: res.Locale,
		ChecksumPassed: res.Validation.Passed,
		Warnings:       res.Validation.Warnings,
		Metrics: map[string]float64{
			"lines":               float64(len(res.Lines)),
			"items":               float64(len(res.Items)),
			"unrecognized":        float64(res.Unrecognized),
			"dropped":             float64(res.Dropped),
			"locale_confidence":   res.LocaleConfidence,
			"checksum_difference": diff,
		},
	}
	if !res.Metadata.Total.IsZero() || res.Validation.Passed {
		total := res.Metadata.Total.InexactFloat64()
		dto.TotalAmount = &total
	}
	return dto
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
