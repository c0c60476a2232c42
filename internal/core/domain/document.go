package domain

import (
	"fmt"
	"strings"
	"time"
)

// NotAvailablePath is stored as the blob path of documents declared as not available.
const NotAvailablePath = "path/not_available"

// NotAvailableText replaces OCR output for documents without a file.
const NotAvailableText = "Document not available."

type DocType string

const (
	DocTypeInsuranceCard   DocType = "Insurance Card"
	DocTypeDoctorsLetter   DocType = "Doctor's Letter"
	DocTypeVaccinationCard DocType = "Vaccination Card"
	DocTypeLabReport       DocType = "Lab Report"
	DocTypeOther           DocType = "Anything else?"
	DocTypeClinicalReport  DocType = "Clinical Report"
)

var docTypes = []DocType{
	DocTypeInsuranceCard,
	DocTypeDoctorsLetter,
	DocTypeVaccinationCard,
	DocTypeLabReport,
	DocTypeOther,
	DocTypeClinicalReport,
}

// DocTypes returns the accepted document types in display order.
func DocTypes() []DocType {
	out := make([]DocType, len(docTypes))
	copy(out, docTypes)
	return out
}

// ParseDocType matches raw against the enumeration. Empty input selects the
// legacy Clinical Report type.
func ParseDocType(raw string) (DocType, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DocTypeClinicalReport, nil
	}
	for _, dt := range docTypes {
		if string(dt) == raw {
			return dt, nil
		}
	}
	names := make([]string, 0, len(docTypes))
	for _, dt := range docTypes {
		names = append(names, string(dt))
	}
	return "", WrapError(ErrInvalidInput, "parse doc type",
		fmt.Errorf("unknown document type %q, must be one of: %s", raw, strings.Join(names, ", ")))
}

type Document struct {
	ID          string    `json:"id"`
	DocType     DocType   `json:"doc_type"`
	FileName    string    `json:"file_name"`
	BlobPath    string    `json:"file_path"`
	BlobURL     *string   `json:"preview_url"`
	ContentType string    `json:"file_type"`
	ByteSize    int64     `json:"file_size"`
	UploadedAt  time.Time `json:"upload_date"`
	Text        *string   `json:"text"`
	Fields      []string  `json:"keypoints"`
	Accepted    bool      `json:"accepted"`
	Message     string    `json:"message"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Document) HasFile() bool {
	return d.BlobPath != NotAvailablePath
}

// DocumentFilter narrows repository listings. The zero value lists everything.
type DocumentFilter struct {
	AcceptedOnly bool
	WithTextOnly bool
}

type UploadRequest struct {
	FileName    string
	ContentType string
	DocType     string
	HasFile     bool
	Body        []byte
}
