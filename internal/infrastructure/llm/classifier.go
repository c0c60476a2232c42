// Package llm phrases the document checks, extraction and writing tasks as
// prompts for any ports.Completer and parses the answers.
package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

type Classifier struct {
	completer    ports.Completer
	windowMonths int
	now          func() time.Time
}

func NewClassifier(completer ports.Completer, recencyWindowMonths int) *Classifier {
	if recencyWindowMonths <= 0 {
		recencyWindowMonths = 3
	}
	return &Classifier{
		completer:    completer,
		windowMonths: recencyWindowMonths,
		now:          time.Now,
	}
}

// Classify issues the checks concurrently. The first failing call cancels the rest.
func (c *Classifier) Classify(ctx context.Context, req domain.ClassifyRequest) (domain.CheckResults, error) {
	if err := c.completer.Ready(); err != nil {
		return domain.CheckResults{}, err
	}

	var typeRaw, recencyRaw, clarityRaw, medicalRaw string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.completer.Complete(gctx, buildTypeMatchPrompt(req.Text, req.Label))
		if err != nil {
			return fmt.Errorf("type match check: %w", err)
		}
		typeRaw = out
		return nil
	})
	g.Go(func() error {
		out, err := c.completer.Complete(gctx, buildRecencyPrompt(req.Text, c.now(), c.windowMonths))
		if err != nil {
			return fmt.Errorf("recency check: %w", err)
		}
		recencyRaw = out
		return nil
	})
	g.Go(func() error {
		out, err := c.completer.Complete(gctx, buildClarityPrompt(req.Text))
		if err != nil {
			return fmt.Errorf("clarity check: %w", err)
		}
		clarityRaw = out
		return nil
	})
	if req.MedicalRelevance {
		g.Go(func() error {
			out, err := c.completer.Complete(gctx, buildMedicalRelevancePrompt(req.Text, req.Label))
			if err != nil {
				return fmt.Errorf("medical relevance check: %w", err)
			}
			medicalRaw = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.CheckResults{}, err
	}

	results := domain.CheckResults{
		TypeMatch: ParseVerdict(typeRaw),
		Recency:   ParseRecency(recencyRaw),
		Clarity:   ParseClarity(clarityRaw),

		RecencyWindowMonths: c.windowMonths,
	}
	if req.MedicalRelevance {
		results.MedicalRelevance = ParseVerdict(medicalRaw)
	}
	return results, nil
}
