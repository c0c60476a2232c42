package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/medintake/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	return prepareDB(db)
}

// prepareDB closes db when it cannot be reached.
func prepareDB(db *sql.DB) (*sql.DB, error) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const documentColumns = `id, doc_type, file_name, file_path, preview_url, file_type, file_size, upload_date, text, keypoints, accepted, message, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	fieldsJSON, err := marshalFields(doc.Fields)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		doc.ID, string(doc.DocType), doc.FileName, doc.BlobPath, nullString(doc.BlobURL), doc.ContentType, doc.ByteSize,
		doc.UploadedAt, nullString(doc.Text), fieldsJSON, doc.Accepted, doc.Message, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

// UpdateEnrichment overwrites text and fields. Last write wins.
func (r *DocumentRepository) UpdateEnrichment(ctx context.Context, id string, text string, fields []string) error {
	if fields == nil {
		fields = []string{}
	}
	fieldsJSON, err := marshalFields(fields)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET text = $2, keypoints = $3, updated_at = $4
WHERE id = $1
`, id, text, fieldsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document enrichment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document enrichment rows: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document enrichment", fmt.Errorf("id=%s", id))
	}
	return nil
}

// List returns documents in upload order.
func (r *DocumentRepository) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	var where []string
	if filter.AcceptedOnly {
		where = append(where, "accepted")
	}
	if filter.WithTextOnly {
		where = append(where, "text IS NOT NULL AND btrim(text) <> ''")
	}
	query := `
SELECT ` + documentColumns + `
FROM documents`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY upload_date ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc        domain.Document
		docType    string
		previewURL sql.NullString
		text       sql.NullString
		fieldsRaw  []byte
	)
	if err := row.Scan(
		&doc.ID, &docType, &doc.FileName, &doc.BlobPath, &previewURL, &doc.ContentType, &doc.ByteSize,
		&doc.UploadedAt, &text, &fieldsRaw, &doc.Accepted, &doc.Message, &doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	doc.DocType = domain.DocType(docType)
	if previewURL.Valid {
		doc.BlobURL = &previewURL.String
	}
	if text.Valid {
		doc.Text = &text.String
	}
	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &doc.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal keypoints: %w", err)
		}
	}
	return &doc, nil
}

// marshalFields keeps "not produced yet" (nil) distinct from an empty list.
func marshalFields(fields []string) (any, error) {
	if fields == nil {
		return nil, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal keypoints: %w", err)
	}
	return raw, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
