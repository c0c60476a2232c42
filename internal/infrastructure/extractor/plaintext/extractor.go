package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/medintake/internal/core/domain"
)

// Extractor returns uploaded text files as-is.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Recognize(_ context.Context, data []byte, _ string, _ domain.OCRMode) (string, error) {
	if !utf8.Valid(data) {
		return "", domain.WrapError(domain.ErrOCR, "plaintext extract", fmt.Errorf("file is not valid UTF-8"))
	}
	return strings.TrimSpace(string(data)), nil
}
