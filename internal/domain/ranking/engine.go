package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"jobradar/internal/domain/candidate"
	"jobradar/internal/domain/job"
	"jobradar/internal/vectorizer"

	"github.com/google/uuid"
)

// Hybrid formula weights. They sum to 1.0; every sub-score is clamped to
// [0,1] before combination so finalScore is always in [0,1].
const (
	WeightSemantic        = 0.45
	WeightRecency         = 0.25
	WeightLiveness        = 0.20
	WeightPersonalization = 0.10

	// ScoreThreshold excludes low-confidence matches from the feed
	// entirely; they are never merely ranked low.
	ScoreThreshold = 0.60

	// FeedSize caps the daily feed. Fewer results are returned as-is,
	// never padded with matches below the threshold.
	FeedSize = 15

	// recencyHalfLife halves the recency sub-score per week of age.
	recencyHalfLife = 7 * 24 * time.Hour

	// VerifiedActiveTrust is the trust floor for the "Verified Active"
	// badge.
	VerifiedActiveTrust = 85
)

// Discovery fallback weights, used when the candidate has no skills at
// all: the semantic term is dropped and the rest renormalized so an empty
// profile still gets a sensible broad feed instead of an impossible query.
const (
	discoveryRecency  = 0.50
	discoveryLiveness = 0.35
	discoveryTrust    = 0.15
)

// Match is one scored (candidate, job) pair. Ephemeral: lives only in the
// feed cache window.
type Match struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	JobID       uuid.UUID `json:"job_id"`

	Semantic        float64 `json:"semantic"`
	Recency         float64 `json:"recency"`
	Liveness        float64 `json:"liveness"`
	Personalization float64 `json:"personalization"`
	FinalScore      float64 `json:"final_score"`

	MatchedSkills []string `json:"matched_skills"`
	Explanation   string   `json:"explanation"`

	VerifiedActive    bool `json:"verified_active"`
	DirectFromCompany bool `json:"direct_from_company"`

	TrustScore int       `json:"trust_score"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	PostedAt   time.Time `json:"posted_at"`
	Discovery  bool      `json:"discovery"`
}

// Engine computes feeds. It is pure and reads nothing: callers pass the
// corpus, the candidate vector, and the interaction signal in.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: func() time.Time { return time.Now().UTC() }}
}

// NewEngineAt pins the clock, for deterministic scoring in tests.
func NewEngineAt(now time.Time) *Engine {
	return &Engine{now: func() time.Time { return now }}
}

// Score computes the hybrid score for one (candidate, job) pair.
func (e *Engine) Score(profile candidate.Profile, cand vectorizer.Vector, j job.Job, actions candidate.Actions) Match {
	discovery := !profile.HasSkills()

	m := Match{
		CandidateID: profile.CandidateID,
		JobID:       j.CanonicalID,
		TrustScore:  j.TrustScore,
		Title:       j.Title,
		Company:     j.Company,
		PostedAt:    j.PostedAt,
		Discovery:   discovery,
	}

	m.Semantic = clamp01(vectorizer.Cosine(cand, vectorizer.JobVector(j)))
	m.Recency = clamp01(e.recencyScore(j))
	m.Liveness = clamp01(livenessScore(j.Liveness))
	m.Personalization = clamp01(personalizationScore(j, actions))

	if discovery {
		m.FinalScore = discoveryRecency*m.Recency +
			discoveryLiveness*m.Liveness +
			discoveryTrust*clamp01(float64(j.TrustScore)/100)
	} else {
		m.FinalScore = WeightSemantic*m.Semantic +
			WeightRecency*m.Recency +
			WeightLiveness*m.Liveness +
			WeightPersonalization*m.Personalization
	}
	m.FinalScore = clamp01(m.FinalScore)

	m.MatchedSkills = vectorizer.MatchedTags(cand, j)
	m.VerifiedActive = j.TrustScore >= VerifiedActiveTrust && j.Liveness == job.LivenessActive
	m.DirectFromCompany = j.Source == job.SourceCompany
	m.Explanation = Explain(m, j)

	return m
}

// Rank scores the corpus for one candidate and produces the ordered daily
// feed: threshold-filtered, capped at FeedSize, deterministically sorted by
// finalScore desc, then trustScore desc, then postedAt desc.
func (e *Engine) Rank(profile candidate.Profile, cand vectorizer.Vector, corpus []job.Job, actions candidate.Actions) []Match {
	excluded := make(map[uuid.UUID]struct{}, len(actions.ExcludedJobIDs))
	for _, id := range actions.ExcludedJobIDs {
		excluded[id] = struct{}{}
	}

	out := make([]Match, 0, len(corpus))
	for _, j := range corpus {
		if !j.FeedEligible() {
			continue
		}
		if _, ok := excluded[j.CanonicalID]; ok {
			continue
		}
		m := e.Score(profile, cand, j, actions)
		if m.FinalScore < ScoreThreshold {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, k int) bool {
		if out[i].FinalScore != out[k].FinalScore {
			return out[i].FinalScore > out[k].FinalScore
		}
		if out[i].TrustScore != out[k].TrustScore {
			return out[i].TrustScore > out[k].TrustScore
		}
		return out[i].PostedAt.After(out[k].PostedAt)
	})

	if len(out) > FeedSize {
		out = out[:FeedSize]
	}
	return out
}

func (e *Engine) recencyScore(j job.Job) float64 {
	posted := j.PostedAt
	if posted.IsZero() {
		posted = j.FirstSeenAt
	}
	if posted.IsZero() {
		return 0
	}
	age := e.now().Sub(posted)
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, age.Hours()/recencyHalfLife.Hours())
}

func livenessScore(s job.LivenessStatus) float64 {
	switch s {
	case job.LivenessActive:
		return 1.0
	case job.LivenessStale:
		return 0.0
	}
	return 0.5
}

// personalizationScore is the behavioral tie-break signal: affinity between
// the job and the candidate's recent saved/applied interactions.
func personalizationScore(j job.Job, actions candidate.Actions) float64 {
	if len(actions.Interactions) == 0 {
		return 0
	}

	jobTags := make(map[string]struct{}, len(j.SkillTags))
	for _, t := range j.SkillTags {
		jobTags[strings.ToLower(t)] = struct{}{}
	}

	score := 0.0
	for _, it := range actions.Interactions {
		if it.Company != "" && strings.EqualFold(it.Company, j.Company) {
			score += 0.4
		}
		for _, t := range it.SkillTags {
			if _, ok := jobTags[strings.ToLower(t)]; ok {
				score += 0.1
			}
		}
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
