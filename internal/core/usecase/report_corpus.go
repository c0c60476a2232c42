package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/medintake/internal/core/domain"
)

const missingURL = "n/a"

// buildCorpus numbers the documents with distinct non-empty text in input
// order. Later documents whose text exactly repeats an earlier one are dropped.
func buildCorpus(docs []domain.Document) (string, []domain.Reference) {
	seen := make(map[string]struct{}, len(docs))
	var blocks []string
	var refs []domain.Reference

	for _, doc := range docs {
		if doc.Text == nil || strings.TrimSpace(*doc.Text) == "" {
			continue
		}
		text := *doc.Text
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		ref := domain.Reference{
			Number:   len(refs) + 1,
			FileName: doc.FileName,
			URL:      missingURL,
		}
		if doc.BlobURL != nil && *doc.BlobURL != "" {
			ref.URL = *doc.BlobURL
		}
		refs = append(refs, ref)
		blocks = append(blocks, fmt.Sprintf(
			"Document type: %s\nReference: [(%d)](%s)\n---\n%s",
			doc.DocType, ref.Number, ref.URL, text,
		))
	}
	if len(refs) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nReferences:\n")
	for _, ref := range refs {
		fmt.Fprintf(&b, "(%d) %s: %s\n", ref.Number, ref.FileName, ref.URL)
	}
	return b.String(), refs
}

// stripCodeFence removes a Markdown code fence wrapped around the whole text.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
