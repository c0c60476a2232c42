package acceptance

import (
	"strings"
	"testing"

	"github.com/kirillkom/medintake/internal/core/domain"
)

func passingChecks() domain.CheckResults {
	return domain.CheckResults{
		TypeMatch:        domain.VerdictYes,
		Recency:          domain.RecencyRecent,
		Clarity:          0.9,
		MedicalRelevance: domain.VerdictYes,
	}
}

func TestDecideStrictAcceptsWhenAllChecksPass(t *testing.T) {
	for _, dt := range []domain.DocType{domain.DocTypeInsuranceCard, domain.DocTypeDoctorsLetter, domain.DocTypeLabReport} {
		d := Decide(dt, passingChecks())
		if !d.Accepted {
			t.Fatalf("%s: expected accepted, reasons=%v", dt, d.Reasons)
		}
		if d.Branch != domain.BranchStrict {
			t.Fatalf("%s: expected strict branch, got %s", dt, d.Branch)
		}
		if !strings.Contains(d.Message, "0.90") {
			t.Fatalf("%s: expected clarity in message, got %q", dt, d.Message)
		}
	}
}

func TestDecideStrictRejectsEachFailingCondition(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.CheckResults)
		reason string
	}{
		{"medical", func(c *domain.CheckResults) { c.MedicalRelevance = domain.VerdictNo }, "not medically relevant for an 'Lab Report'"},
		{"type", func(c *domain.CheckResults) { c.TypeMatch = domain.VerdictNo }, "could not be confirmed as 'Lab Report'"},
		{"clarity", func(c *domain.CheckResults) { c.Clarity = 0.49 }, "clarity score of 0.49"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checks := passingChecks()
			tc.mutate(&checks)
			d := Decide(domain.DocTypeLabReport, checks)
			if d.Accepted {
				t.Fatalf("expected rejection")
			}
			if len(d.Reasons) != 1 || !strings.Contains(d.Reasons[0], tc.reason) {
				t.Fatalf("unexpected reasons: %v", d.Reasons)
			}
			if d.Message != "" {
				t.Fatalf("rejection should not carry an acceptance message, got %q", d.Message)
			}
		})
	}
}

func TestDecideStrictIgnoresRecency(t *testing.T) {
	checks := passingChecks()
	checks.Recency = domain.RecencyNotRecent
	if d := Decide(domain.DocTypeInsuranceCard, checks); !d.Accepted {
		t.Fatalf("strict branch must not evaluate recency, reasons=%v", d.Reasons)
	}
}

func TestDecideStrictClarityBoundary(t *testing.T) {
	checks := passingChecks()
	checks.Clarity = ClarityThreshold
	if d := Decide(domain.DocTypeDoctorsLetter, checks); !d.Accepted {
		t.Fatalf("clarity equal to threshold must pass, reasons=%v", d.Reasons)
	}
}

func TestDecidePermissiveAlwaysAccepts(t *testing.T) {
	worst := domain.CheckResults{
		TypeMatch: domain.VerdictNo,
		Recency:   domain.RecencyNotRecent,
		Clarity:   0,
	}
	for _, dt := range []domain.DocType{domain.DocTypeVaccinationCard, domain.DocTypeOther} {
		d := Decide(dt, worst)
		if !d.Accepted || d.Branch != domain.BranchPermissive {
			t.Fatalf("%s: expected permissive acceptance, got %+v", dt, d)
		}
		if d.Message == "" {
			t.Fatalf("%s: expected acceptance message", dt)
		}
	}
}

func TestDecideLegacyUsesRecency(t *testing.T) {
	checks := passingChecks()
	checks.MedicalRelevance = ""
	checks.Recency = domain.RecencyNotRecent
	d := Decide(domain.DocTypeClinicalReport, checks)
	if d.Accepted {
		t.Fatalf("expected rejection for stale clinical report")
	}
	if len(d.Reasons) != 1 || !strings.Contains(d.Reasons[0], "not recent") {
		t.Fatalf("unexpected reasons: %v", d.Reasons)
	}

	checks.Recency = domain.RecencyUnknown
	d = Decide(domain.DocTypeClinicalReport, checks)
	if !d.Accepted {
		t.Fatalf("unknown recency must not reject, reasons=%v", d.Reasons)
	}
	if d.Message != "Document accepted: Type correct, recency acceptable, and clarity sufficient (score: 0.90)." {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestDecideLegacyRecencyReasonNamesWindow(t *testing.T) {
	cases := []struct {
		window int
		want   string
	}{
		{window: 0, want: "older than the last 3 months"},
		{window: 1, want: "older than the last 1 month)"},
		{window: 6, want: "older than the last 6 months"},
	}
	for _, tc := range cases {
		checks := passingChecks()
		checks.MedicalRelevance = ""
		checks.Recency = domain.RecencyNotRecent
		checks.RecencyWindowMonths = tc.window

		d := Decide(domain.DocTypeClinicalReport, checks)
		if len(d.Reasons) != 1 || !strings.Contains(d.Reasons[0], tc.want) {
			t.Fatalf("window %d: unexpected reasons %v", tc.window, d.Reasons)
		}
	}
}

func TestRequiresMedicalRelevance(t *testing.T) {
	if !RequiresMedicalRelevance(domain.DocTypeLabReport) {
		t.Fatalf("lab report should require medical relevance")
	}
	if RequiresMedicalRelevance(domain.DocTypeVaccinationCard) || RequiresMedicalRelevance(domain.DocTypeClinicalReport) {
		t.Fatalf("only strict types require medical relevance")
	}
}

func TestJoinReasons(t *testing.T) {
	cases := map[string][]string{
		"":               nil,
		"a":              {"a"},
		"a and b":        {"a", "b"},
		"a, b, and c":    {"a", "b", "c"},
		"a, b, c, and d": {"a", "b", "c", "d"},
	}
	for want, in := range cases {
		if got := JoinReasons(in); got != want {
			t.Fatalf("JoinReasons(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFallbackRejection(t *testing.T) {
	got := FallbackRejection([]string{"x", "y"})
	if got != "Document rejected because x and y." {
		t.Fatalf("unexpected fallback %q", got)
	}
}
