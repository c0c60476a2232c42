package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

// ReportUseCase compiles all accepted documents into one Markdown report.
// Reports are append-only; readers get the newest one.
type ReportUseCase struct {
	docs    ports.DocumentRepository
	reports ports.ReportRepository
	writer  ports.ReportWriter
	runner  ports.TaskRunner
	logger  *slog.Logger
	now     func() time.Time

	inflight singleflight.Group
}

func NewReportUseCase(
	docs ports.DocumentRepository,
	reports ports.ReportRepository,
	writer ports.ReportWriter,
	runner ports.TaskRunner,
	logger *slog.Logger,
) *ReportUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportUseCase{
		docs:    docs,
		reports: reports,
		writer:  writer,
		runner:  runner,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Trigger schedules a background compilation and returns immediately.
func (uc *ReportUseCase) Trigger(ctx context.Context) error {
	if err := uc.runner.Submit(ctx, domain.Job{Kind: domain.JobKindReport, SubmittedAt: uc.now()}); err != nil {
		return fmt.Errorf("schedule report generation: %w", err)
	}
	return nil
}

// Generate compiles and stores a report. Concurrent calls share one run.
func (uc *ReportUseCase) Generate(ctx context.Context) (*domain.Report, error) {
	v, err, shared := uc.inflight.Do("report", func() (any, error) {
		return uc.generate(ctx)
	})
	if shared {
		uc.logger.Info("report.shared_run")
	}
	if err != nil {
		return nil, err
	}
	return v.(*domain.Report), nil
}

func (uc *ReportUseCase) generate(ctx context.Context) (*domain.Report, error) {
	docs, err := uc.docs.List(ctx, domain.DocumentFilter{AcceptedOnly: true, WithTextOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	corpus, refs := buildCorpus(docs)
	if len(refs) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyCorpus, "generate report", fmt.Errorf("%d documents listed", len(docs)))
	}

	text, err := uc.writer.WriteReport(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	text = stripCodeFence(text)
	if text == "" {
		return nil, fmt.Errorf("write report: empty completion")
	}

	report := &domain.Report{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: uc.now(),
	}
	if err := uc.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	uc.logger.Info("report.generated", "report_id", report.ID, "references", len(refs))
	return report, nil
}

func (uc *ReportUseCase) Latest(ctx context.Context) (*domain.Report, error) {
	report, err := uc.reports.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest report: %w", err)
	}
	return report, nil
}
