package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/medintake/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

var documentColumnNames = []string{
	"id", "doc_type", "file_name", "file_path", "preview_url", "file_type", "file_size",
	"upload_date", "text", "keypoints", "accepted", "message", "updated_at",
}

func TestCreateInsertsPlaceholderWithNulls(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := &domain.Document{
		ID:          "doc-1",
		DocType:     domain.DocTypeDoctorsLetter,
		FileName:    "Doctor's Letter (not available)",
		BlobPath:    domain.NotAvailablePath,
		ContentType: "text/plain",
		UploadedAt:  now,
		Accepted:    true,
		Message:     "marked as not available",
		UpdatedAt:   now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			"doc-1", "Doctor's Letter", "Doctor's Letter (not available)", domain.NotAvailablePath,
			nil, "text/plain", int64(0), now, nil, nil, true, "marked as not available", now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, doc_type, file_name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansNullableColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(documentColumnNames).
		AddRow("doc-1", "Lab Report", "lab.jpg", "uploads/doc-1_lab.jpg", "http://x/lab.jpg", "image/jpeg", int64(42),
			now, "Hemoglobin 13.5", []byte(`["Hemoglobin: 13.5"]`), true, "ok", now)
	mock.ExpectQuery("SELECT id, doc_type, file_name").WithArgs("doc-1").WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.DocType != domain.DocTypeLabReport || doc.BlobURL == nil || *doc.BlobURL != "http://x/lab.jpg" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Text == nil || *doc.Text != "Hemoglobin 13.5" {
		t.Fatalf("unexpected text: %v", doc.Text)
	}
	if len(doc.Fields) != 1 || doc.Fields[0] != "Hemoglobin: 13.5" {
		t.Fatalf("unexpected fields: %v", doc.Fields)
	}
}

func TestUpdateEnrichmentReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", "text", []byte(`["A: b"]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEnrichment(context.Background(), "missing", "text", []string{"A: b"})
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateEnrichmentStoresEmptyListForNilFields(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", domain.NotAvailableText, []byte(`[]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateEnrichment(context.Background(), "doc-1", domain.NotAvailableText, nil); err != nil {
		t.Fatalf("UpdateEnrichment() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListAppliesFilter(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(documentColumnNames).
		AddRow("a", "Lab Report", "a.jpg", "uploads/a.jpg", nil, "image/jpeg", int64(1), now, "A", nil, true, "", now).
		AddRow("b", "Insurance Card", "b.jpg", "uploads/b.jpg", nil, "image/jpeg", int64(1), now.Add(time.Minute), "B", nil, true, "", now)
	mock.ExpectQuery(`WHERE accepted AND text IS NOT NULL`).WillReturnRows(rows)

	docs, err := repo.List(context.Background(), domain.DocumentFilter{AcceptedOnly: true, WithTextOnly: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].ID != "b" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if docs[0].Fields != nil {
		t.Fatalf("expected nil fields for NULL keypoints, got %v", docs[0].Fields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
