package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/medintake/internal/core/domain"
)

// Extractor reads the embedded text layer of a PDF. Scanned PDFs without a
// text layer yield an empty string.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Recognize(_ context.Context, data []byte, _ string, _ domain.OCRMode) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrOCR, "pdf extract", fmt.Errorf("open pdf: %w", err))
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrOCR, "pdf extract", fmt.Errorf("read text layer: %w", err))
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", domain.WrapError(domain.ErrOCR, "pdf extract", fmt.Errorf("read text layer: %w", err))
	}
	return strings.TrimSpace(string(raw)), nil
}
