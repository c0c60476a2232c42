package ports

import (
	"context"

	"github.com/kirillkom/medintake/internal/core/domain"
)

// DocumentIntake is the inbound contract for the synchronous upload phase.
type DocumentIntake interface {
	Upload(ctx context.Context, req domain.UploadRequest) (*domain.AcceptanceResult, string, error)
}

// DocumentEnricher is the inbound contract for the background enrichment phase.
type DocumentEnricher interface {
	EnrichByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for stored documents.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}

// ReportService compiles and serves doctor-facing reports.
type ReportService interface {
	Trigger(ctx context.Context) error
	Generate(ctx context.Context) (*domain.Report, error)
	Latest(ctx context.Context) (*domain.Report, error)
}

// ChatService answers questions about the latest report.
type ChatService interface {
	Ask(ctx context.Context, question string) (string, error)
}

// SpeechService renders replies as audio and opens realtime voice sessions
// grounded on the latest report.
type SpeechService interface {
	Speak(ctx context.Context, text string) ([]byte, string, error)
	Session(ctx context.Context) ([]byte, error)
}

// DocumentExporter renders stored documents as a spreadsheet.
type DocumentExporter interface {
	ExportXLSX(ctx context.Context) ([]byte, error)
}

// JobHandler executes a single background job.
type JobHandler interface {
	Handle(ctx context.Context, job domain.Job) error
}
