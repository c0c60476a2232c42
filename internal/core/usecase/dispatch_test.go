package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/medintake/internal/core/domain"
)

type enricherFake struct {
	ids []string
	err error
}

func (f *enricherFake) EnrichByID(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return f.err
}

type reportServiceFake struct {
	generated int
	err       error
}

func (f *reportServiceFake) Trigger(context.Context) error { return nil }

func (f *reportServiceFake) Generate(context.Context) (*domain.Report, error) {
	f.generated++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Report{ID: "r"}, nil
}

func (f *reportServiceFake) Latest(context.Context) (*domain.Report, error) {
	return nil, domain.ErrReportNotFound
}

type observerFake struct {
	started  int
	finished []string
	failures int
	lags     int
}

func (o *observerFake) StartJob() { o.started++ }

func (o *observerFake) FinishJob(kind string, _ time.Duration, err error) {
	o.finished = append(o.finished, kind)
	if err != nil {
		o.failures++
	}
}

func (o *observerFake) ObserveQueueLag(string, time.Duration) { o.lags++ }

func TestDispatcherRoutesJobs(t *testing.T) {
	enricher := &enricherFake{}
	reports := &reportServiceFake{}
	observer := &observerFake{}
	d := NewDispatcher(enricher, reports, observer)

	if err := d.Handle(context.Background(), domain.Job{Kind: domain.JobKindEnrich, DocumentID: "doc-1", SubmittedAt: time.Now()}); err != nil {
		t.Fatalf("enrich job error = %v", err)
	}
	if err := d.Handle(context.Background(), domain.Job{Kind: domain.JobKindReport}); err != nil {
		t.Fatalf("report job error = %v", err)
	}
	if len(enricher.ids) != 1 || enricher.ids[0] != "doc-1" || reports.generated != 1 {
		t.Fatalf("jobs not routed: %v / %d", enricher.ids, reports.generated)
	}
	if observer.started != 2 || len(observer.finished) != 2 || observer.lags != 1 {
		t.Fatalf("unexpected observations %+v", observer)
	}
}

func TestDispatcherFailures(t *testing.T) {
	observer := &observerFake{}
	d := NewDispatcher(&enricherFake{err: errors.New("ocr down")}, &reportServiceFake{}, observer)

	if err := d.Handle(context.Background(), domain.Job{Kind: domain.JobKindEnrich, DocumentID: "x"}); err == nil {
		t.Fatalf("expected enrich failure")
	}
	err := d.Handle(context.Background(), domain.Job{Kind: "reindex"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown kind, got %v", err)
	}
	if observer.failures != 2 {
		t.Fatalf("expected two failed observations, got %d", observer.failures)
	}
}

func TestDispatcherWithoutObserver(t *testing.T) {
	d := NewDispatcher(&enricherFake{}, &reportServiceFake{}, nil)
	if err := d.Handle(context.Background(), domain.Job{Kind: domain.JobKindReport}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
}
