package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

const sheetName = "Documents"

var headers = []string{
	"Uploaded",
	"Document Type",
	"File Name",
	"Accepted",
	"Message",
	"Key Fields",
	"Preview URL",
}

// XLSXExporter writes the document register as a single-sheet workbook.
type XLSXExporter struct {
	repo   ports.DocumentRepository
	logger *slog.Logger
}

func NewXLSXExporter(repo ports.DocumentRepository, logger *slog.Logger) *XLSXExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXExporter{repo: repo, logger: logger}
}

func (e *XLSXExporter) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	docs, err := e.repo.List(ctx, domain.DocumentFilter{})
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// New files start with "Sheet1"; rename instead of adding a second sheet.
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for i, doc := range docs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		write(1, doc.UploadedAt.UTC().Format(time.RFC3339))
		write(2, string(doc.DocType))
		write(3, doc.FileName)
		write(4, yesNo(doc.Accepted))
		write(5, doc.Message)
		write(6, strings.Join(doc.Fields, "; "))
		url := ""
		if doc.BlobURL != nil {
			url = *doc.BlobURL
		}
		write(7, url)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 22)
	_ = f.SetColWidth(sheetName, "B", "B", 20)
	_ = f.SetColWidth(sheetName, "C", "C", 28)
	_ = f.SetColWidth(sheetName, "D", "D", 10)
	_ = f.SetColWidth(sheetName, "E", "F", 60)
	_ = f.SetColWidth(sheetName, "G", "G", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	e.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
