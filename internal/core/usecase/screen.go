package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/medintake/internal/core/acceptance"
	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

// Screener runs the content checks for a document type and turns the policy
// decision into a user-facing result. It never returns an error: provider
// failures become rejections.
type Screener struct {
	completer  ports.Completer
	classifier ports.DocumentClassifier
	rejections ports.RejectionWriter
	logger     *slog.Logger
}

func NewScreener(
	completer ports.Completer,
	classifier ports.DocumentClassifier,
	rejections ports.RejectionWriter,
	logger *slog.Logger,
) *Screener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Screener{
		completer:  completer,
		classifier: classifier,
		rejections: rejections,
		logger:     logger,
	}
}

func (s *Screener) Screen(ctx context.Context, text string, docType domain.DocType) domain.AcceptanceResult {
	branch := acceptance.BranchFor(docType)
	if err := s.completer.Ready(); err != nil {
		s.logger.Error("screen.provider_unavailable", "doc_type", docType, "error", err)
		return critical(branch)
	}

	checks, err := s.classifier.Classify(ctx, domain.ClassifyRequest{
		Text:             text,
		Label:            acceptance.ClassificationLabel(docType),
		MedicalRelevance: acceptance.RequiresMedicalRelevance(docType),
	})
	if err != nil {
		if domain.IsKind(err, domain.ErrProviderUnavailable) {
			return critical(branch)
		}
		s.logger.Warn("screen.classification_failed", "doc_type", docType, "error", err)
		return domain.AcceptanceResult{
			Branch:  branch,
			Message: "Document analysis failed: " + err.Error(),
		}
	}

	decision := acceptance.Decide(docType, checks)
	result := domain.AcceptanceResult{
		Branch:  branch,
		Checks:  checks,
		Reasons: decision.Reasons,
	}
	if decision.Accepted {
		result.Accepted = true
		result.Message = decision.Message
		result.CanExtractFields = true
		result.Text = text
		return result
	}

	// The deterministic reasons always lead; the generated sentence only adds advice.
	result.Message = acceptance.FallbackRejection(decision.Reasons)
	advice, err := s.rejections.WriteRejection(ctx, acceptance.JoinReasons(decision.Reasons))
	if err != nil {
		s.logger.Warn("screen.rejection_message_failed", "doc_type", docType, "error", err)
		return result
	}
	if advice = strings.TrimSpace(advice); advice != "" {
		result.Message += " " + advice
	}
	return result
}

func critical(branch domain.Branch) domain.AcceptanceResult {
	return domain.AcceptanceResult{
		Branch:  branch,
		Message: acceptance.CriticalMessage,
	}
}
