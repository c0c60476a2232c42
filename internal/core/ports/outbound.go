package ports

import (
	"context"
	"io"

	"github.com/kirillkom/medintake/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateEnrichment(ctx context.Context, id string, text string, fields []string) error
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
}

// ReportRepository appends compiled reports and reads the newest one.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	Latest(ctx context.Context) (*domain.Report, error)
}

// ObjectStorage stores uploaded files.
type ObjectStorage interface {
	Save(ctx context.Context, key, contentType string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
}

// TextRecognizer turns an uploaded file into plain text.
type TextRecognizer interface {
	Recognize(ctx context.Context, data []byte, contentType string, mode domain.OCRMode) (string, error)
}

// Completer sends a single prompt to the text-completion provider.
// Ready reports domain.ErrProviderUnavailable when the provider cannot be used at all.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Ready() error
}

// DocumentClassifier runs the independent content checks on extracted text.
type DocumentClassifier interface {
	Classify(ctx context.Context, req domain.ClassifyRequest) (domain.CheckResults, error)
}

// FieldExtractor pulls labelled key facts out of accepted text.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) ([]string, error)
}

// RejectionWriter phrases rejection reasons for the uploader.
type RejectionWriter interface {
	WriteRejection(ctx context.Context, reasons string) (string, error)
}

// ReportWriter turns the reference corpus into a Markdown report.
type ReportWriter interface {
	WriteReport(ctx context.Context, corpus string) (string, error)
}

// AnswerGenerator answers free-form questions grounded on a report.
type AnswerGenerator interface {
	Answer(ctx context.Context, question, report string) (string, error)
}

// SpeechSynthesizer renders text as audio. OpenSession returns the provider's
// realtime session payload unchanged.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, string, error)
	OpenSession(ctx context.Context, instructions string) ([]byte, error)
}

// TaskRunner executes jobs detached from the caller.
type TaskRunner interface {
	Submit(ctx context.Context, job domain.Job) error
}
