package port

import (
	"context"

	"marksheet/internal/domain"
)

// TextExtractor converts a document to raw text via OCR.
type TextExtractor interface {
	ExtractRawText(ctx context.Context, data []byte, kind domain.DocumentKind) (string, error)
}
