package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

// EnrichUseCase is the background phase: full-quality OCR, screening with the
// stored document type, field extraction and the final text/fields write.
type EnrichUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	ocr       ports.TextRecognizer
	screener  *Screener
	extractor ports.FieldExtractor
	logger    *slog.Logger
}

func NewEnrichUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	ocr ports.TextRecognizer,
	screener *Screener,
	extractor ports.FieldExtractor,
	logger *slog.Logger,
) *EnrichUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichUseCase{
		repo:      repo,
		storage:   storage,
		ocr:       ocr,
		screener:  screener,
		extractor: extractor,
		logger:    logger,
	}
}

// EnrichByID leaves the phase-one record untouched when the document is
// rejected on this pass.
func (uc *EnrichUseCase) EnrichByID(ctx context.Context, documentID string) error {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if !doc.HasFile() {
		if err := uc.persist(ctx, doc.ID, domain.NotAvailableText, []string{}); err != nil {
			return err
		}
		uc.logger.Info("enrich.not_available", "document_id", doc.ID, "doc_type", doc.DocType)
		return nil
	}

	text, err := uc.recognize(ctx, doc)
	if err != nil {
		return err
	}

	result := uc.screener.Screen(ctx, text, doc.DocType)
	if !result.Accepted {
		uc.logger.Warn("enrich.rejected",
			"document_id", doc.ID,
			"doc_type", doc.DocType,
			"reasons", result.Reasons,
			"message", result.Message,
		)
		return nil
	}

	fields, err := uc.extractFields(ctx, result)
	if err != nil {
		return err
	}
	if err := uc.persist(ctx, doc.ID, result.Text, fields); err != nil {
		return err
	}
	uc.logger.Info("enrich.completed", "document_id", doc.ID, "doc_type", doc.DocType, "fields", len(fields))
	return nil
}

func (uc *EnrichUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *EnrichUseCase) recognize(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := uc.storage.Open(ctx, doc.BlobPath)
	if err != nil {
		return "", fmt.Errorf("open stored file: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read stored file: %w", err)
	}

	text, err := uc.ocr.Recognize(ctx, data, doc.ContentType, domain.OCRModeFull)
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

func (uc *EnrichUseCase) extractFields(ctx context.Context, result domain.AcceptanceResult) ([]string, error) {
	if !result.CanExtractFields {
		return []string{}, nil
	}
	fields, err := uc.extractor.ExtractFields(ctx, result.Text)
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}
	if fields == nil {
		fields = []string{}
	}
	return fields, nil
}

func (uc *EnrichUseCase) persist(ctx context.Context, documentID, text string, fields []string) error {
	if err := uc.repo.UpdateEnrichment(ctx, documentID, text, fields); err != nil {
		return fmt.Errorf("save enrichment: %w", err)
	}
	return nil
}
