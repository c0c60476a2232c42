package domain

// Verdict is a parsed yes/no answer. The empty value means the check was not requested.
type Verdict string

const (
	VerdictYes Verdict = "yes"
	VerdictNo  Verdict = "no"
)

type Recency string

const (
	RecencyRecent    Recency = "recent"
	RecencyNotRecent Recency = "not_recent"
	RecencyUnknown   Recency = "unknown"
)

// Clarity is a legibility score in [0, 1].
type Clarity float64

type CheckResults struct {
	TypeMatch        Verdict `json:"type_match"`
	Recency          Recency `json:"recency"`
	Clarity          Clarity `json:"clarity"`
	MedicalRelevance Verdict `json:"medical_relevance,omitempty"`

	// RecencyWindowMonths is the window the recency check was asked about.
	RecencyWindowMonths int `json:"recency_window_months,omitempty"`
}

type ClassifyRequest struct {
	Text             string
	Label            string
	MedicalRelevance bool
}

type Branch string

const (
	BranchStrict     Branch = "strict"
	BranchPermissive Branch = "permissive"
	BranchLegacy     Branch = "legacy"
)

type AcceptanceResult struct {
	Accepted         bool         `json:"accepted"`
	Message          string       `json:"message"`
	CanExtractFields bool         `json:"can_extract_fields"`
	Text             string       `json:"-"`
	Branch           Branch       `json:"branch,omitempty"`
	Checks           CheckResults `json:"checks"`
	Reasons          []string     `json:"reasons,omitempty"`
}

// OCRMode selects the recognition quality. Fast is used on the request path.
type OCRMode string

const (
	OCRModeFast OCRMode = "fast"
	OCRModeFull OCRMode = "full"
)
