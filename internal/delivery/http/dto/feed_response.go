package dto

import (
	"time"

	"jobradar/internal/domain/ranking"

	"github.com/google/uuid"
)

type MatchResponse struct {
	JobID   uuid.UUID `json:"job_id"`
	Title   string    `json:"title"`
	Company string    `json:"company"`

	FinalScore      float64 `json:"final_score"`
	Semantic        float64 `json:"semantic"`
	Recency         float64 `json:"recency"`
	Liveness        float64 `json:"liveness"`
	Personalization float64 `json:"personalization"`

	MatchedSkills []string `json:"matched_skills"`
	Explanation   string   `json:"explanation"`
	Badges        []string `json:"badges"`
	PostedDate    string   `json:"posted_date,omitempty"`
}

func FromMatch(m ranking.Match) MatchResponse {
	badges := make([]string, 0, 2)
	if m.VerifiedActive {
		badges = append(badges, "Verified Active")
	}
	if m.DirectFromCompany {
		badges = append(badges, "Direct From Company")
	}

	posted := ""
	if !m.PostedAt.IsZero() {
		posted = m.PostedAt.UTC().Format(time.RFC3339)
	}

	return MatchResponse{
		JobID:           m.JobID,
		Title:           m.Title,
		Company:         m.Company,
		FinalScore:      m.FinalScore,
		Semantic:        m.Semantic,
		Recency:         m.Recency,
		Liveness:        m.Liveness,
		Personalization: m.Personalization,
		MatchedSkills:   m.MatchedSkills,
		Explanation:     m.Explanation,
		Badges:          badges,
		PostedDate:      posted,
	}
}

func FromMatches(matches []ranking.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, FromMatch(m))
	}
	return out
}
