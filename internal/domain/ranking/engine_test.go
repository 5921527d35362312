package ranking

import (
	"strings"
	"testing"
	"time"

	"jobradar/internal/domain/candidate"
	"jobradar/internal/domain/job"
	"jobradar/internal/vectorizer"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testProfile(skills ...string) candidate.Profile {
	p := candidate.Profile{CandidateID: uuid.New()}
	for _, s := range skills {
		p.Skills = append(p.Skills, candidate.Skill{Name: s, ProficiencyLevel: 4, YearsExperience: 3})
	}
	return p
}

func testJob(title string, tags []string, liveness job.LivenessStatus, trust int, postedAgo time.Duration) job.Job {
	return job.Job{
		CanonicalID: uuid.New(),
		Source:      job.SourceAggregator,
		SourceName:  "boardfeed",
		SourceID:    uuid.NewString(),
		Title:       title,
		Company:     "acme",
		SkillTags:   tags,
		TrustScore:  trust,
		Liveness:    liveness,
		PostedAt:    testNow.Add(-postedAgo),
		FirstSeenAt: testNow.Add(-postedAgo),
	}
}

func TestScore_Bounds(t *testing.T) {
	e := NewEngineAt(testNow)
	p := testProfile("React", "Node.js")
	v := vectorizer.Vectorize(p)

	jobs := []job.Job{
		testJob("Senior React Engineer", []string{"react", "node.js"}, job.LivenessActive, 90, time.Hour),
		testJob("Warehouse Associate", nil, job.LivenessStale, 40, 60*24*time.Hour),
		testJob("Rust Engineer", []string{"rust"}, job.LivenessUnknown, 60, 365*24*time.Hour),
	}
	for _, j := range jobs {
		m := e.Score(p, v, j, candidate.Actions{})
		for name, s := range map[string]float64{
			"semantic": m.Semantic, "recency": m.Recency,
			"liveness": m.Liveness, "personalization": m.Personalization,
			"final": m.FinalScore,
		} {
			if s < 0 || s > 1 {
				t.Errorf("%s: sub-score %s out of [0,1]: %f", j.Title, name, s)
			}
		}
	}
}

// Spec scenario: full skill overlap, active, trusted → near the top and
// badged; zero overlap, stale, low trust → excluded regardless of recency.
func TestRank_ExampleScenario(t *testing.T) {
	e := NewEngineAt(testNow)
	p := testProfile("React", "Node.js")
	v := vectorizer.Vectorize(p)

	jobA := testJob("Senior React Engineer", []string{"react", "node.js"}, job.LivenessActive, 90, 2*time.Hour)
	jobB := testJob("Warehouse Associate", nil, job.LivenessStale, 40, time.Hour)

	feed := e.Rank(p, v, []job.Job{jobB, jobA}, candidate.Actions{})
	if len(feed) != 1 {
		t.Fatalf("expected only job A in feed, got %d entries", len(feed))
	}
	m := feed[0]
	if m.JobID != jobA.CanonicalID {
		t.Fatal("expected job A to be the match")
	}
	if m.FinalScore < 0.85 {
		t.Errorf("full overlap + fresh + active should score near the top, got %f", m.FinalScore)
	}
	if !m.VerifiedActive {
		t.Error("trust 90 + active should carry the Verified Active badge")
	}
	if len(m.MatchedSkills) != 2 {
		t.Errorf("expected 2 matched skills, got %v", m.MatchedSkills)
	}
}

func TestRank_ThresholdFiltering(t *testing.T) {
	e := NewEngineAt(testNow)
	p := testProfile("React")
	v := vectorizer.Vectorize(p)

	// Old, unknown liveness, no overlap: well below 0.60.
	low := testJob("COBOL Maintainer", []string{"sql"}, job.LivenessUnknown, 60, 90*24*time.Hour)
	feed := e.Rank(p, v, []job.Job{low}, candidate.Actions{})
	for _, m := range feed {
		if m.FinalScore < ScoreThreshold {
			t.Errorf("match below threshold leaked into feed: %f", m.FinalScore)
		}
	}
	if len(feed) != 0 {
		t.Errorf("expected empty feed, got %d entries", len(feed))
	}
}

func TestRank_CardinalityCap(t *testing.T) {
	e := NewEngineAt(testNow)
	p := testProfile("Go")
	v := vectorizer.Vectorize(p)

	corpus := make([]job.Job, 0, 40)
	for i := 0; i < 40; i++ {
		corpus = append(corpus, testJob("Go Engineer", []string{"go"}, job.LivenessActive, 90, time.Hour))
	}
	feed := e.Rank(p, v, corpus, candidate.Actions{})
	if len(feed) != FeedSize {
		t.Errorf("feed must cap at %d, got %d", FeedSize, len(feed))
	}
}

func TestRank_DeterministicTieBreaks(t *testing.T) {
	e := NewEngineAt(testNow)
	p := testProfile("Go")
	v := vectorizer.Vectorize(p)

	higherTrust := testJob("Go Engineer", []string{"go"}, job.LivenessActive, 95, time.Hour)
	lowerTrust := testJob("Go Engineer", []string{"go"}, job.LivenessActive, 70, time.Hour)
	newer := testJob("Go Engineer", []string{"go"}, job.LivenessActive, 95, time.Minute)

	for run := 0; run < 3; run++ {
		feed := e.Rank(p, v, []job.Job{lowerTrust, higherTrust, newer}, candidate.Actions{})
		if len(feed) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(feed))
		}
		if feed[0].JobID != newer.CanonicalID {
			t.Error("equal score and trust should break ties by postedAt desc")
		}
		if feed[1].JobID != higherTrust.CanonicalID || feed[2].JobID != lowerTrust.CanonicalID {
			t.Error("equal score should break ties by trustScore desc")
		}
	}
}

func TestRank_StaleAndOutOfScopeExcluded(t *testing.T) {
	e := NewEngineAt(testNow)
	p := testProfile("Go")
	v := vectorizer.Vectorize(p)

	stale := testJob("Go Engineer", []string{"go"}, job.LivenessStale, 95, time.Hour)
	oos := testJob("Go Engineer", []string{"go"}, job.LivenessActive, 95, time.Hour)
	oos.OutOfScope = true

	if feed := e.Rank(p, v, []job.Job{stale, oos}, candidate.Actions{}); len(feed) != 0 {
		t.Errorf("stale/out-of-scope jobs must not appear in the feed, got %d", len(feed))
	}
}

func TestRank_ExcludedJobIDs(t *testing.T) {
	e := NewEngineAt(testNow)
	p := testProfile("Go")
	v := vectorizer.Vectorize(p)

	j := testJob("Go Engineer", []string{"go"}, job.LivenessActive, 95, time.Hour)
	actions := candidate.Actions{ExcludedJobIDs: []uuid.UUID{j.CanonicalID}}

	if feed := e.Rank(p, v, []job.Job{j}, actions); len(feed) != 0 {
		t.Error("hidden/applied jobs must be excluded from the feed")
	}
}

func TestRank_EmptySkillsFallsBackToDiscovery(t *testing.T) {
	e := NewEngineAt(testNow)
	p := candidate.Profile{CandidateID: uuid.New()}
	v := vectorizer.Vectorize(p)

	fresh := testJob("Any Role", []string{"go"}, job.LivenessActive, 90, time.Hour)
	feed := e.Rank(p, v, []job.Job{fresh}, candidate.Actions{})
	if len(feed) != 1 {
		t.Fatalf("empty skill set must fall back to discovery ranking, got %d entries", len(feed))
	}
	if !feed[0].Discovery {
		t.Error("discovery flag should be set for empty-skill candidates")
	}
}

func TestPersonalization_CompanyAndSkillAffinity(t *testing.T) {
	e := NewEngineAt(testNow)
	p := testProfile("Go")
	v := vectorizer.Vectorize(p)
	j := testJob("Go Engineer", []string{"go"}, job.LivenessActive, 90, time.Hour)

	none := e.Score(p, v, j, candidate.Actions{})
	saved := e.Score(p, v, j, candidate.Actions{Interactions: []candidate.Interaction{
		{Company: "acme", SkillTags: []string{"go"}, Kind: "saved", At: testNow},
	}})
	if saved.Personalization <= none.Personalization {
		t.Errorf("interaction affinity should raise personalization: %f vs %f",
			saved.Personalization, none.Personalization)
	}
	if saved.FinalScore <= none.FinalScore {
		t.Error("personalization should raise the final score")
	}
}

func TestExplain_Deterministic(t *testing.T) {
	e := NewEngineAt(testNow)
	p := testProfile("React", "Node.js")
	v := vectorizer.Vectorize(p)
	j := testJob("Senior React Engineer", []string{"react", "node.js"}, job.LivenessActive, 90, time.Hour)

	a := e.Score(p, v, j, candidate.Actions{})
	b := e.Score(p, v, j, candidate.Actions{})
	if a.Explanation != b.Explanation {
		t.Error("explanation must be deterministic for identical inputs")
	}
	if !strings.Contains(a.Explanation, "react") {
		t.Errorf("explanation should name matched skills, got %q", a.Explanation)
	}
	if !strings.Contains(a.Explanation, "verified still open") {
		t.Errorf("explanation should mention liveness, got %q", a.Explanation)
	}
}
