package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToDTO(t *testing.T) {
	res := PipelineResult{
		ReceiptID: "11111111-2222-3333-4444-555555555555",
		Locale:    "de_DE",
		Lines:     []string{"a", "b", "c"},
		Items: []ParsedItem{{
			RawName:    "Milch",
			TotalPrice: decimal.RequireFromString("1.09"),
			TaxClass:   "A",
			Confidence: 0.75,
		}},
		Metadata: ReceiptMetadata{
			Merchant: "REWE",
			Total:    decimal.RequireFromString("1.09"),
			Date:     "2024-03-12",
		},
		Validation: ValidationResult{Passed: true},
	}
	dto := ToDTO(res, "raw text")

	if dto.ReceiptID != res.ReceiptID {
		t.Fatalf("receipt id changed: %q", dto.ReceiptID)
	}
	if len(dto.Items) != 1 || dto.Items[0].Name != "Milch" {
		t.Fatalf("items wrong: %+v", dto.Items)
	}
	if dto.Items[0].Total != 1.09 {
		t.Fatalf("item total wrong: %v", dto.Items[0].Total)
	}
	if dto.TotalAmount == nil || *dto.TotalAmount != 1.09 {
		t.Fatalf("total wrong: %v", dto.TotalAmount)
	}
	if dto.Metrics["items"] != 1 || dto.Metrics["lines"] != 3 {
		t.Fatalf("metrics wrong: %v", dto.Metrics)
	}
	if !dto.ChecksumPassed || dto.OCRText != "raw text" {
		t.Fatalf("flags wrong: %+v", dto)
	}
}

func TestToDTO_GeneratesID(t *testing.T) {
	dto := ToDTO(PipelineResult{}, "")
	if dto.ReceiptID == "" {
		t.Fatalf("missing generated receipt id")
	}
}

func TestDTOJSONFieldNames(t *testing.T) {
	dto := ToDTO(PipelineResult{
		ReceiptID: "x",
		Items:     []ParsedItem{{RawName: "Brot", TotalPrice: decimal.RequireFromString("2.49")}},
	}, "")
	raw, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"receipt_id"`, `"items"`, `"name"`, `"quantity"`, `"price"`, `"total"`, `"checksum_passed"`, `"metrics"`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("downstream contract field %s missing in %s", key, raw)
		}
	}
}

// The consumer declares quantity, price, total and total_amount as floats.
// Marshal a populated payload and unmarshal it untyped to pin down that
// every money field comes out as a JSON number, never a quoted string
func TestDTOMoneyFieldsAreJSONNumbers(t *testing.T) {
	qty := decimal.NullDecimal{Decimal: decimal.RequireFromString("2"), Valid: true}
	unit := decimal.NullDecimal{Decimal: decimal.RequireFromString("1.99"), Valid: true}
	res := PipelineResult{
		ReceiptID: "x",
		Items: []ParsedItem{{
			RawName:    "Joghurt",
			Quantity:   qty,
			UnitPrice:  unit,
			TotalPrice: decimal.RequireFromString("3.98"),
		}},
		Metadata:   ReceiptMetadata{Total: decimal.RequireFromString("3.98")},
		Validation: ValidationResult{Passed: true},
	}
	raw, err := json.Marshal(ToDTO(res, ""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	total, ok := payload["total_amount"].(float64)
	if !ok || total != 3.98 {
		t.Fatalf("total_amount not a JSON number: %v (%T)", payload["total_amount"], payload["total_amount"])
	}

	items, _ := payload["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", payload["items"])
	}
	item := items[0].(map[string]any)
	for key, want := range map[string]float64{"quantity": 2, "price": 1.99, "total": 3.98} {
		got, ok := item[key].(float64)
		if !ok || got != want {
			t.Fatalf("item %s not a JSON number %v: %v (%T)", key, want, item[key], item[key])
		}
	}
}
