package httpadapter

import (
	"context"
	"time"

	"github.com/kirillkom/medintake/internal/config"
	"github.com/kirillkom/medintake/internal/core/domain"
)

type intakeFake struct {
	result *domain.AcceptanceResult
	err    error
	last   domain.UploadRequest
	calls  int
}

func (f *intakeFake) Upload(_ context.Context, req domain.UploadRequest) (*domain.AcceptanceResult, string, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, "", f.err
	}
	return f.result, "doc-1", nil
}

type docsFake struct {
	err  error
	docs []domain.Document
}

func (f docsFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, DocType: domain.DocTypeLabReport, FileName: "a.jpg", Fields: []string{"Hb: 13"}}, nil
}

func (f docsFake) List(context.Context) ([]domain.Document, error) {
	return f.docs, f.err
}

type reportsFake struct {
	triggerErr error
	latest     *domain.Report
	latestErr  error
	triggered  int
}

func (f *reportsFake) Trigger(context.Context) error {
	f.triggered++
	return f.triggerErr
}

func (f *reportsFake) Generate(context.Context) (*domain.Report, error) { return f.latest, nil }

func (f *reportsFake) Latest(context.Context) (*domain.Report, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latest, nil
}

type chatFake struct {
	reply    string
	err      error
	question string
}

func (f *chatFake) Ask(_ context.Context, question string) (string, error) {
	f.question = question
	return f.reply, f.err
}

type speechFake struct{ err error }

func (f speechFake) Speak(context.Context, string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("ID3audio"), "audio/mpeg", nil
}

func (f speechFake) Session(context.Context) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(`{"id":"sess_1","client_secret":{"value":"ek_1"}}`), nil
}

type exporterFake struct{}

func (exporterFake) ExportXLSX(context.Context) ([]byte, error) { return []byte("PK"), nil }

type testDeps struct {
	intake  *intakeFake
	docs    docsFake
	reports *reportsFake
	chat    *chatFake
}

func newTestDeps() *testDeps {
	return &testDeps{
		intake: &intakeFake{result: &domain.AcceptanceResult{Accepted: true, Message: "Document accepted."}},
		reports: &reportsFake{latest: &domain.Report{
			ID:        "r1",
			Text:      "## Findings\nAnemia [(1)]",
			CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		}},
		chat: &chatFake{reply: "Anemia was found."},
	}
}

func (d *testDeps) services() Services {
	return Services{
		Intake:    d.intake,
		Documents: d.docs,
		Reports:   d.reports,
		Chat:      d.chat,
		Speech:    speechFake{},
		Exporter:  exporterFake{},
	}
}

func testConfig() config.Config {
	return config.Config{MaxUploadBytes: 1 << 20}
}
