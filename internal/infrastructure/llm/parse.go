package llm

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/kirillkom/medintake/internal/core/domain"
)

func normalizeAnswer(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, " \t\r\n.!\"'`*")
	return s
}

// ParseVerdict maps a free-form answer to yes/no. Anything whose first word is
// not "yes" counts as no.
func ParseVerdict(raw string) domain.Verdict {
	if firstWord(normalizeAnswer(raw)) == "yes" {
		return domain.VerdictYes
	}
	return domain.VerdictNo
}

func firstWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

func ParseRecency(raw string) domain.Recency {
	s := normalizeAnswer(raw)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	switch {
	case strings.HasPrefix(s, "not recent"):
		return domain.RecencyNotRecent
	case strings.HasPrefix(s, "recent"):
		return domain.RecencyRecent
	default:
		return domain.RecencyUnknown
	}
}

// ParseClarity reads a score in [0, 1]. Only plain decimal literals such as
// "0.75" or "1" are numbers; everything else scores 0.
func ParseClarity(raw string) domain.Clarity {
	s := normalizeAnswer(raw)
	if fields := strings.Fields(s); len(fields) > 0 {
		s = strings.TrimRight(fields[0], ".,;")
	}
	if !isDecimal(s) {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return domain.Clarity(math.Max(0, math.Min(1, v)))
}

// isDecimal reports whether s is digits with at most one dot.
func isDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// ParseFields splits a comma or newline separated list of "Label: Value" pairs.
func ParseFields(raw string) []string {
	out := []string{}
	for _, line := range strings.Split(raw, "\n") {
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(part)
			part = strings.TrimLeft(part, "-*• ")
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
