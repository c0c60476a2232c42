package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/medintake/internal/core/ports"
)

type FieldExtractor struct {
	completer ports.Completer
}

func NewFieldExtractor(completer ports.Completer) *FieldExtractor {
	return &FieldExtractor{completer: completer}
}

func (e *FieldExtractor) ExtractFields(ctx context.Context, text string) ([]string, error) {
	out, err := e.completer.Complete(ctx, buildFieldsPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}
	return ParseFields(out), nil
}

// Writer produces free-text output: rejection sentences, reports and answers.
type Writer struct {
	completer ports.Completer
}

func NewWriter(completer ports.Completer) *Writer {
	return &Writer{completer: completer}
}

func (w *Writer) WriteRejection(ctx context.Context, reasons string) (string, error) {
	out, err := w.completer.Complete(ctx, buildRejectionPrompt(reasons))
	if err != nil {
		return "", fmt.Errorf("write rejection: %w", err)
	}
	out = strings.Trim(strings.TrimSpace(out), "\"")
	if out == "" {
		return "", fmt.Errorf("write rejection: empty completion")
	}
	return out, nil
}

func (w *Writer) WriteReport(ctx context.Context, corpus string) (string, error) {
	out, err := w.completer.Complete(ctx, buildReportPrompt(corpus))
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (w *Writer) Answer(ctx context.Context, question, report string) (string, error) {
	if strings.TrimSpace(report) == "" {
		report = NoReportContext
	}
	out, err := w.completer.Complete(ctx, buildAnswerPrompt(question, report))
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return strings.TrimSpace(out), nil
}
