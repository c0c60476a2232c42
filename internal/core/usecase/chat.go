package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

// ChatUseCase answers questions grounded on the latest compiled report.
type ChatUseCase struct {
	reports ports.ReportRepository
	answers ports.AnswerGenerator
	speech  ports.SpeechSynthesizer
}

func NewChatUseCase(reports ports.ReportRepository, answers ports.AnswerGenerator, speech ports.SpeechSynthesizer) *ChatUseCase {
	return &ChatUseCase{reports: reports, answers: answers, speech: speech}
}

func (uc *ChatUseCase) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is empty"))
	}

	reportText, err := uc.latestReportText(ctx)
	if err != nil {
		return "", err
	}

	reply, err := uc.answers.Answer(ctx, question, reportText)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return reply, nil
}

func (uc *ChatUseCase) Speak(ctx context.Context, text string) ([]byte, string, error) {
	if uc.speech == nil {
		return nil, "", domain.WrapError(domain.ErrProviderUnavailable, "speak", errors.New("speech synthesis is not configured"))
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "speak", errors.New("text is empty"))
	}
	audio, contentType, err := uc.speech.Synthesize(ctx, text)
	if err != nil {
		return nil, "", fmt.Errorf("synthesize speech: %w", err)
	}
	return audio, contentType, nil
}

// Session opens a realtime voice session whose instructions carry the latest
// report. The provider's session JSON is returned as is.
func (uc *ChatUseCase) Session(ctx context.Context) ([]byte, error) {
	if uc.speech == nil {
		return nil, domain.WrapError(domain.ErrProviderUnavailable, "session", errors.New("speech synthesis is not configured"))
	}
	reportText, err := uc.latestReportText(ctx)
	if err != nil {
		return nil, err
	}
	session, err := uc.speech.OpenSession(ctx, sessionInstructions(reportText))
	if err != nil {
		return nil, fmt.Errorf("open realtime session: %w", err)
	}
	return session, nil
}

// latestReportText is empty when no report has been compiled yet.
func (uc *ChatUseCase) latestReportText(ctx context.Context) (string, error) {
	report, err := uc.reports.Latest(ctx)
	switch {
	case err == nil:
		return report.Text, nil
	case domain.IsKind(err, domain.ErrReportNotFound):
		return "", nil
	default:
		return "", fmt.Errorf("load latest report: %w", err)
	}
}

const noReportInstructions = "No information available"

func sessionInstructions(report string) string {
	if strings.TrimSpace(report) == "" {
		report = noReportInstructions
	}
	return `You are a helpful assistant that speaks clearly and very concisely.
You are given a report of a patient's medical history.
The report is as follows:
---
` + report + `
---

You are given a question from the doctor. Answer it based on the report.
Always name the report sections your answer is based on by their section titles.
Double check your answer against the report.
Be concise and to the point.
`
}
