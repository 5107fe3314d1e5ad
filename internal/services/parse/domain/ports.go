package domain

import (
	"context"

	"bonscan/internal/core/ocr"
)

// ParserPort is the external port of the parse service
type ParserPort interface {
	// Parse runs the full pipeline on one upstream OCR payload. On a
	// checksum failure it returns the populated result together with the
	// error so diagnostics are never lost
	Parse(ctx context.Context, in ocr.Result) (PipelineResult, error)
}
