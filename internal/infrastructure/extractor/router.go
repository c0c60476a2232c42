// Package extractor routes uploaded files to the text recognizer that can read them.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

type Router struct {
	vision ports.TextRecognizer
	pdf    ports.TextRecognizer
	text   ports.TextRecognizer
}

func NewRouter(vision, pdf, text ports.TextRecognizer) *Router {
	return &Router{vision: vision, pdf: pdf, text: text}
}

// Recognize picks a recognizer by media type. Empty output is a failure.
func (r *Router) Recognize(ctx context.Context, data []byte, contentType string, mode domain.OCRMode) (string, error) {
	if len(data) == 0 {
		return "", domain.WrapError(domain.ErrOCR, "recognize", errors.New("empty file"))
	}

	recognizer := r.vision
	switch mediaType(contentType) {
	case "application/pdf":
		if r.pdf != nil {
			recognizer = r.pdf
		}
	case "text/plain":
		if r.text != nil {
			recognizer = r.text
		}
	}
	if recognizer == nil {
		return "", domain.WrapError(domain.ErrOCR, "recognize", fmt.Errorf("no recognizer for %q", contentType))
	}

	text, err := recognizer.Recognize(ctx, data, contentType, mode)
	if err != nil {
		if domain.IsKind(err, domain.ErrOCR) {
			return "", err
		}
		return "", domain.WrapError(domain.ErrOCR, "recognize", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.WrapError(domain.ErrOCR, "recognize", errors.New("no text recognized"))
	}
	return text, nil
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
