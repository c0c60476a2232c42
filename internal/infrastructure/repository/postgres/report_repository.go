package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/medintake/internal/core/domain"
)

// ReportRepository is append-only; readers only ever see the newest row.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO reports (id, text, created_at)
VALUES ($1,$2,$3)
`, report.ID, report.Text, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepository) Latest(ctx context.Context) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, text, created_at
FROM reports
ORDER BY created_at DESC
LIMIT 1
`)
	var report domain.Report
	if err := row.Scan(&report.ID, &report.Text, &report.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrReportNotFound, "latest report", err)
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return &report, nil
}
