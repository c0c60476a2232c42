package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/medintake/internal/core/domain"
)

func reportDoc(id, text string, docType domain.DocType) domain.Document {
	d := storedDoc(id, docType)
	d.Text = strPtr(text)
	return d
}

func TestBuildCorpusDedupesAndNumbers(t *testing.T) {
	empty := reportDoc("empty", "", domain.DocTypeOther)
	noURL := reportDoc("c", "letter text", domain.DocTypeDoctorsLetter)
	noURL.BlobURL = nil
	docs := []domain.Document{
		empty,
		reportDoc("a", "lab text", domain.DocTypeLabReport),
		reportDoc("b", "lab text", domain.DocTypeLabReport),
		noURL,
	}

	corpus, refs := buildCorpus(docs)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %+v", refs)
	}
	if refs[0].Number != 1 || refs[0].FileName != "a.jpg" || refs[1].Number != 2 || refs[1].URL != "n/a" {
		t.Fatalf("unexpected references %+v", refs)
	}
	wantBlock := "Document type: Lab Report\nReference: [(1)](https://blobs.test/uploads/a.jpg)\n---\nlab text"
	if !strings.HasPrefix(corpus, wantBlock) {
		t.Fatalf("unexpected corpus start:\n%s", corpus)
	}
	if strings.Count(corpus, "lab text") != 1 {
		t.Fatalf("duplicate text must appear once:\n%s", corpus)
	}
	if !strings.Contains(corpus, "References:\n(1) a.jpg: https://blobs.test/uploads/a.jpg\n(2) c.jpg: n/a\n") {
		t.Fatalf("unexpected reference list:\n%s", corpus)
	}
}

func TestBuildCorpusEmpty(t *testing.T) {
	corpus, refs := buildCorpus([]domain.Document{reportDoc("a", "  ", domain.DocTypeOther)})
	if corpus != "" || refs != nil {
		t.Fatalf("expected empty corpus, got %q %+v", corpus, refs)
	}
}

func TestGenerateStoresStrippedReport(t *testing.T) {
	docs := newDocumentRepoFake(
		reportDoc("a", "lab text", domain.DocTypeLabReport),
		reportDoc("b", "", domain.DocTypeInsuranceCard),
	)
	rejected := reportDoc("r", "rejected text", domain.DocTypeLabReport)
	rejected.Accepted = false
	_ = docs.Create(context.Background(), &rejected)

	reports := &reportRepoFake{}
	writer := &reportWriterFake{out: "```markdown\n## Medical History\nNot documented [(1)]\n```"}
	uc := NewReportUseCase(docs, reports, writer, &runnerFake{}, quietLogger())

	report, err := uc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if report.Text != "## Medical History\nNot documented [(1)]" {
		t.Fatalf("expected fences stripped, got %q", report.Text)
	}
	if len(reports.reports) != 1 {
		t.Fatalf("expected one stored report")
	}
	corpus := writer.corpora[0]
	if !strings.Contains(corpus, "[(1)]") || strings.Contains(corpus, "[(2)]") {
		t.Fatalf("expected only one numbered reference:\n%s", corpus)
	}
	if strings.Contains(corpus, "rejected text") {
		t.Fatalf("rejected documents must not be compiled")
	}
}

func TestGenerateWriterFailureSavesNothing(t *testing.T) {
	docs := newDocumentRepoFake(reportDoc("a", "lab text", domain.DocTypeLabReport))
	reports := &reportRepoFake{}
	uc := NewReportUseCase(docs, reports, &reportWriterFake{err: errors.New("timeout")}, &runnerFake{}, quietLogger())

	if _, err := uc.Generate(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(reports.reports) != 0 {
		t.Fatalf("no report expected after failure")
	}
}

func TestGenerateWithoutDocuments(t *testing.T) {
	uc := NewReportUseCase(newDocumentRepoFake(), &reportRepoFake{}, &reportWriterFake{out: "x"}, &runnerFake{}, quietLogger())
	_, err := uc.Generate(context.Background())
	if !domain.IsKind(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected empty corpus error, got %v", err)
	}
}

func TestGenerateCollapsesConcurrentRuns(t *testing.T) {
	docs := newDocumentRepoFake(reportDoc("a", "lab text", domain.DocTypeLabReport))
	reports := &reportRepoFake{}
	writer := &reportWriterFake{out: "## Findings", block: make(chan struct{})}
	uc := NewReportUseCase(docs, reports, writer, &runnerFake{}, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Generate(context.Background()); err != nil {
				t.Errorf("Generate() error = %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(writer.block)
	wg.Wait()

	if len(reports.reports) > 3 || len(reports.reports) == 0 {
		t.Fatalf("unexpected report count %d", len(reports.reports))
	}
	if len(writer.corpora) != len(reports.reports) {
		t.Fatalf("each writer call must store exactly one report")
	}
}

func TestLatestIsIdempotent(t *testing.T) {
	reports := &reportRepoFake{}
	uc := NewReportUseCase(newDocumentRepoFake(), reports, &reportWriterFake{}, &runnerFake{}, quietLogger())

	if _, err := uc.Latest(context.Background()); !domain.IsKind(err, domain.ErrReportNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	now := time.Now().UTC()
	_ = reports.Create(context.Background(), &domain.Report{ID: "r1", Text: "old", CreatedAt: now})
	_ = reports.Create(context.Background(), &domain.Report{ID: "r2", Text: "new", CreatedAt: now.Add(time.Second)})

	first, err := uc.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	second, _ := uc.Latest(context.Background())
	if first.ID != "r2" || second.ID != first.ID || second.Text != first.Text {
		t.Fatalf("expected stable newest report, got %+v / %+v", first, second)
	}
}

func TestTriggerSubmitsReportJob(t *testing.T) {
	runner := &runnerFake{}
	uc := NewReportUseCase(newDocumentRepoFake(), &reportRepoFake{}, &reportWriterFake{}, runner, quietLogger())

	if err := uc.Trigger(context.Background()); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if len(runner.jobs) != 1 || runner.jobs[0].Kind != domain.JobKindReport {
		t.Fatalf("expected report job, got %+v", runner.jobs)
	}
}
