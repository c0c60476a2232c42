package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

// IntakeUseCase is the synchronous upload phase: store, fast OCR, screen,
// persist, then hand the document to background enrichment.
type IntakeUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	ocr      ports.TextRecognizer
	screener *Screener
	runner   ports.TaskRunner
	logger   *slog.Logger
	now      func() time.Time
}

func NewIntakeUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	ocr ports.TextRecognizer,
	screener *Screener,
	runner ports.TaskRunner,
	logger *slog.Logger,
) *IntakeUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntakeUseCase{
		repo:     repo,
		storage:  storage,
		ocr:      ocr,
		screener: screener,
		runner:   runner,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Upload returns the screening result and the id of the stored document.
// Only input and persistence problems are returned as errors.
func (uc *IntakeUseCase) Upload(ctx context.Context, req domain.UploadRequest) (*domain.AcceptanceResult, string, error) {
	docType, err := domain.ParseDocType(req.DocType)
	if err != nil {
		return nil, "", err
	}
	if !req.HasFile {
		return uc.registerUnavailable(ctx, docType)
	}
	if len(req.Body) == 0 {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("file is required unless has_file is false"))
	}

	id := uuid.NewString()
	now := uc.now()
	key := fmt.Sprintf("uploads/%s_%s", id, sanitizeFilename(req.FileName))
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := uc.storage.Save(ctx, key, contentType, bytes.NewReader(req.Body)); err != nil {
		return nil, "", fmt.Errorf("save to object storage: %w", err)
	}
	url := uc.storage.PublicURL(key)

	doc := &domain.Document{
		ID:          id,
		DocType:     docType,
		FileName:    req.FileName,
		BlobPath:    key,
		BlobURL:     &url,
		ContentType: contentType,
		ByteSize:    int64(len(req.Body)),
		UploadedAt:  now,
		UpdatedAt:   now,
	}

	result, text := uc.screen(ctx, doc, req.Body)
	doc.Text = text
	doc.Accepted = result.Accepted
	doc.Message = result.Message

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, "", fmt.Errorf("create document metadata: %w", err)
	}

	if result.Accepted {
		uc.submitEnrichment(ctx, doc.ID)
	}
	return &result, doc.ID, nil
}

// screen returns the result and the recognized text, which is persisted even
// for rejected uploads. The text is nil when OCR failed.
func (uc *IntakeUseCase) screen(ctx context.Context, doc *domain.Document, body []byte) (domain.AcceptanceResult, *string) {
	text, err := uc.ocr.Recognize(ctx, body, doc.ContentType, domain.OCRModeFast)
	if err != nil {
		uc.logger.Warn("intake.ocr_failed", "document_id", doc.ID, "doc_type", doc.DocType, "error", err)
		return domain.AcceptanceResult{Message: "Text extraction failed: " + err.Error()}, nil
	}

	result := uc.screener.Screen(ctx, text, doc.DocType)
	if result.Accepted {
		uc.logger.Info("intake.accepted", "document_id", doc.ID, "doc_type", doc.DocType)
	} else {
		uc.logger.Info("intake.rejected", "document_id", doc.ID, "doc_type", doc.DocType, "reasons", result.Reasons)
	}
	return result, &text
}

func (uc *IntakeUseCase) registerUnavailable(ctx context.Context, docType domain.DocType) (*domain.AcceptanceResult, string, error) {
	now := uc.now()
	message := fmt.Sprintf("Recorded that no '%s' is available.", docType)
	doc := &domain.Document{
		ID:          uuid.NewString(),
		DocType:     docType,
		FileName:    fmt.Sprintf("%s (not available)", docType),
		BlobPath:    domain.NotAvailablePath,
		ContentType: "text/plain",
		UploadedAt:  now,
		UpdatedAt:   now,
		Accepted:    true,
		Message:     message,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, "", fmt.Errorf("create document metadata: %w", err)
	}
	uc.submitEnrichment(ctx, doc.ID)

	return &domain.AcceptanceResult{
		Accepted: true,
		Message:  message,
	}, doc.ID, nil
}

// submitEnrichment runs after the insert returned, so the job always finds its row.
func (uc *IntakeUseCase) submitEnrichment(ctx context.Context, documentID string) {
	err := uc.runner.Submit(ctx, domain.Job{
		Kind:        domain.JobKindEnrich,
		DocumentID:  documentID,
		SubmittedAt: uc.now(),
	})
	if err != nil {
		uc.logger.Error("intake.enrich_submit_failed", "document_id", documentID, "error", err)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "/" {
		return "document.bin"
	}
	return base
}
