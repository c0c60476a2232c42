// Package acceptance decides whether a document's check results satisfy the
// rules for its type. It has no I/O.
package acceptance

import (
	"fmt"
	"strings"

	"github.com/kirillkom/medintake/internal/core/domain"
)

// ClarityThreshold is the minimum clarity score for branches that check clarity.
const ClarityThreshold = 0.5

// CriticalMessage is returned for every document when no completion provider is usable.
const CriticalMessage = "Critical error: the language model provider is not configured or not available."

type Decision struct {
	Accepted bool
	Branch   domain.Branch
	Reasons  []string
	Message  string
}

// BranchFor returns the rule set used for docType.
func BranchFor(docType domain.DocType) domain.Branch {
	switch docType {
	case domain.DocTypeInsuranceCard, domain.DocTypeDoctorsLetter, domain.DocTypeLabReport:
		return domain.BranchStrict
	case domain.DocTypeVaccinationCard, domain.DocTypeOther:
		return domain.BranchPermissive
	default:
		return domain.BranchLegacy
	}
}

func RequiresMedicalRelevance(docType domain.DocType) bool {
	return BranchFor(docType) == domain.BranchStrict
}

// ClassificationLabel is the document label the type-match check is phrased with.
func ClassificationLabel(docType domain.DocType) string {
	if docType == domain.DocTypeClinicalReport {
		return "report"
	}
	return string(docType)
}

// Decide applies the branch rules for docType to checks. Message is only set
// on acceptance; rejection wording is produced by the caller from Reasons.
func Decide(docType domain.DocType, checks domain.CheckResults) Decision {
	branch := BranchFor(docType)
	d := Decision{Branch: branch}

	switch branch {
	case domain.BranchPermissive:
		d.Accepted = true
		d.Message = fmt.Sprintf("Document accepted: '%s' uploads are stored without content checks.", docType)
		return d
	case domain.BranchStrict:
		if checks.MedicalRelevance != domain.VerdictYes {
			d.Reasons = append(d.Reasons, fmt.Sprintf("its content is not medically relevant for an '%s'", docType))
		}
		if checks.TypeMatch != domain.VerdictYes {
			d.Reasons = append(d.Reasons, fmt.Sprintf("its type could not be confirmed as '%s'", docType))
		}
		if checks.Clarity < ClarityThreshold {
			d.Reasons = append(d.Reasons, clarityReason(checks.Clarity))
		}
		if len(d.Reasons) == 0 {
			d.Accepted = true
			d.Message = fmt.Sprintf(
				"Document accepted: medically relevant, confirmed as '%s', clarity sufficient (score: %.2f).",
				docType, float64(checks.Clarity),
			)
		}
	default:
		if checks.TypeMatch != domain.VerdictYes {
			d.Reasons = append(d.Reasons, "its type could not be confirmed as the expected document type")
		}
		if checks.Recency == domain.RecencyNotRecent {
			d.Reasons = append(d.Reasons, recencyReason(checks.RecencyWindowMonths))
		}
		if checks.Clarity < ClarityThreshold {
			d.Reasons = append(d.Reasons, clarityReason(checks.Clarity))
		}
		if len(d.Reasons) == 0 {
			d.Accepted = true
			d.Message = fmt.Sprintf(
				"Document accepted: Type correct, recency acceptable, and clarity sufficient (score: %.2f).",
				float64(checks.Clarity),
			)
		}
	}
	return d
}

// DefaultRecencyWindowMonths applies when the checks do not carry a window.
const DefaultRecencyWindowMonths = 3

func recencyReason(windowMonths int) string {
	if windowMonths <= 0 {
		windowMonths = DefaultRecencyWindowMonths
	}
	unit := "months"
	if windowMonths == 1 {
		unit = "month"
	}
	return fmt.Sprintf("it was determined to be not recent (older than the last %d %s)", windowMonths, unit)
}

func clarityReason(c domain.Clarity) string {
	return fmt.Sprintf("its clarity score of %.2f is below the %.1f threshold", float64(c), ClarityThreshold)
}

// JoinReasons renders reasons as "a", "a and b" or "a, b, and c".
func JoinReasons(reasons []string) string {
	switch len(reasons) {
	case 0:
		return ""
	case 1:
		return reasons[0]
	case 2:
		return reasons[0] + " and " + reasons[1]
	default:
		return strings.Join(reasons[:len(reasons)-1], ", ") + ", and " + reasons[len(reasons)-1]
	}
}

// FallbackRejection is used when the rejection sentence cannot be generated.
func FallbackRejection(reasons []string) string {
	if len(reasons) == 0 {
		return "Document rejected."
	}
	return "Document rejected because " + JoinReasons(reasons) + "."
}
