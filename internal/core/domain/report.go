package domain

import "time"

type Report struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Reference numbers a document inside a compiled report.
type Reference struct {
	Number   int    `json:"number"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

type JobKind string

const (
	JobKindEnrich JobKind = "enrich"
	JobKindReport JobKind = "report"
)

type Job struct {
	Kind        JobKind   `json:"kind"`
	DocumentID  string    `json:"document_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
