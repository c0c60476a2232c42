package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/kirillkom/medintake/internal/core/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type documentRepoFake struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	order     []string
	createErr error
	updates   int
}

func newDocumentRepoFake(docs ...domain.Document) *documentRepoFake {
	f := &documentRepoFake{docs: map[string]*domain.Document{}}
	for i := range docs {
		d := docs[i]
		f.docs[d.ID] = &d
		f.order = append(f.order, d.ID)
	}
	return f
}

func (f *documentRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copyDoc := *doc
	f.docs[doc.ID] = &copyDoc
	f.order = append(f.order, doc.ID)
	return nil
}

func (f *documentRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New(id))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *documentRepoFake) UpdateEnrichment(_ context.Context, id string, text string, fields []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update", errors.New(id))
	}
	doc.Text = &text
	doc.Fields = fields
	f.updates++
	return nil
}

func (f *documentRepoFake) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Document{}
	for _, id := range f.order {
		doc := f.docs[id]
		if filter.AcceptedOnly && !doc.Accepted {
			continue
		}
		if filter.WithTextOnly && (doc.Text == nil || *doc.Text == "") {
			continue
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (f *documentRepoFake) get(id string) *domain.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id]
}

type storageFake struct {
	blobs   map[string][]byte
	saveErr error
}

func newStorageFake() *storageFake {
	return &storageFake{blobs: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key, _ string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.blobs[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.blobs[key]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) PublicURL(key string) string {
	return "https://blobs.test/" + key
}

type ocrFake struct {
	text  string
	err   error
	calls int
	modes []domain.OCRMode
}

func (f *ocrFake) Recognize(_ context.Context, _ []byte, _ string, mode domain.OCRMode) (string, error) {
	f.calls++
	f.modes = append(f.modes, mode)
	return f.text, f.err
}

type completerFake struct {
	ready error
}

func (f *completerFake) Complete(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func (f *completerFake) Ready() error { return f.ready }

type classifierFake struct {
	checks   domain.CheckResults
	err      error
	calls    int
	requests []domain.ClassifyRequest
}

func (f *classifierFake) Classify(_ context.Context, req domain.ClassifyRequest) (domain.CheckResults, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return domain.CheckResults{}, f.err
	}
	out := f.checks
	if !req.MedicalRelevance {
		out.MedicalRelevance = ""
	}
	return out, nil
}

type rejectionWriterFake struct {
	sentence string
	err      error
	reasons  string
}

func (f *rejectionWriterFake) WriteRejection(_ context.Context, reasons string) (string, error) {
	f.reasons = reasons
	return f.sentence, f.err
}

type extractorFake struct {
	fields []string
	err    error
	calls  int
}

func (f *extractorFake) ExtractFields(context.Context, string) ([]string, error) {
	f.calls++
	return f.fields, f.err
}

// runnerFake records jobs and the repository state at submission time.
type runnerFake struct {
	mu           sync.Mutex
	jobs         []domain.Job
	existedAtJob []bool
	repo         *documentRepoFake
	err          error
}

func (f *runnerFake) Submit(_ context.Context, job domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	if f.repo != nil {
		f.existedAtJob = append(f.existedAtJob, f.repo.get(job.DocumentID) != nil)
	}
	return nil
}

type reportRepoFake struct {
	mu      sync.Mutex
	reports []domain.Report
	err     error
}

func (f *reportRepoFake) Create(_ context.Context, report *domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, *report)
	return nil
}

func (f *reportRepoFake) Latest(context.Context) (*domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reports) == 0 {
		return nil, domain.WrapError(domain.ErrReportNotFound, "latest", errors.New("empty"))
	}
	r := f.reports[len(f.reports)-1]
	return &r, nil
}

type reportWriterFake struct {
	mu      sync.Mutex
	out     string
	err     error
	corpora []string
	block   chan struct{}
}

func (f *reportWriterFake) WriteReport(_ context.Context, corpus string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.corpora = append(f.corpora, corpus)
	return f.out, f.err
}

func passingChecks() domain.CheckResults {
	return domain.CheckResults{
		TypeMatch:        domain.VerdictYes,
		Recency:          domain.RecencyRecent,
		Clarity:          0.9,
		MedicalRelevance: domain.VerdictYes,
	}
}

func strPtr(s string) *string { return &s }
