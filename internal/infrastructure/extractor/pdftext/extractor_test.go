package pdftext

import (
	"context"
	"testing"

	"github.com/kirillkom/medintake/internal/core/domain"
)

func TestRecognizeRejectsNonPDF(t *testing.T) {
	_, err := NewExtractor().Recognize(context.Background(), []byte("definitely not a pdf"), "application/pdf", domain.OCRModeFull)
	if !domain.IsKind(err, domain.ErrOCR) {
		t.Fatalf("expected OCR error kind, got %v", err)
	}
}
