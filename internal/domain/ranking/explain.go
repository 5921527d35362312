package ranking

import (
	"fmt"
	"strings"

	"jobradar/internal/domain/job"
)

// Explain builds the human-readable match explanation from the scoring
// inputs alone, so it is reproducible and testable. No model call.
func Explain(m Match, j job.Job) string {
	parts := make([]string, 0, 4)

	switch {
	case len(m.MatchedSkills) == 1:
		parts = append(parts, fmt.Sprintf("Matches your %s experience", m.MatchedSkills[0]))
	case len(m.MatchedSkills) > 1:
		parts = append(parts, fmt.Sprintf("Matches %d of your skills (%s)",
			len(m.MatchedSkills), strings.Join(m.MatchedSkills, ", ")))
	case m.Discovery:
		parts = append(parts, "Broader pick while your skill profile is empty")
	}

	switch {
	case m.Recency >= 0.9:
		parts = append(parts, "posted in the last day")
	case m.Recency >= 0.5:
		parts = append(parts, "posted this week")
	}

	if j.Liveness == job.LivenessActive {
		parts = append(parts, "verified still open")
	}

	if m.DirectFromCompany {
		parts = append(parts, "listed directly by the company")
	}

	if len(parts) == 0 {
		return "Relevant to your profile"
	}

	s := strings.Join(parts, "; ")
	return strings.ToUpper(s[:1]) + s[1:]
}
