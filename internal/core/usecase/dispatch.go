package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

// JobObserver records job outcomes. Implemented by the worker metrics.
type JobObserver interface {
	StartJob()
	FinishJob(kind string, duration time.Duration, err error)
	ObserveQueueLag(kind string, lag time.Duration)
}

// Dispatcher routes background jobs to the use case that owns them.
type Dispatcher struct {
	enricher ports.DocumentEnricher
	reports  ports.ReportService
	observer JobObserver
}

func NewDispatcher(enricher ports.DocumentEnricher, reports ports.ReportService, observer JobObserver) *Dispatcher {
	return &Dispatcher{enricher: enricher, reports: reports, observer: observer}
}

func (d *Dispatcher) Handle(ctx context.Context, job domain.Job) error {
	started := time.Now()
	if d.observer != nil {
		d.observer.StartJob()
		if !job.SubmittedAt.IsZero() {
			d.observer.ObserveQueueLag(string(job.Kind), started.Sub(job.SubmittedAt))
		}
	}

	err := d.dispatch(ctx, job)

	if d.observer != nil {
		d.observer.FinishJob(string(job.Kind), time.Since(started), err)
	}
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, job domain.Job) error {
	switch job.Kind {
	case domain.JobKindEnrich:
		if err := d.enricher.EnrichByID(ctx, job.DocumentID); err != nil {
			return fmt.Errorf("enrich document %s: %w", job.DocumentID, err)
		}
		return nil
	case domain.JobKindReport:
		if _, err := d.reports.Generate(ctx); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
		return nil
	default:
		return domain.WrapError(domain.ErrInvalidInput, "dispatch job", fmt.Errorf("unknown kind %q", job.Kind))
	}
}
