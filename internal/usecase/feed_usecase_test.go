package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"jobradar/internal/domain/candidate"
	"jobradar/internal/domain/job"
	"jobradar/internal/repository"

	"github.com/google/uuid"
)

type fakeCandidates struct {
	profiles map[uuid.UUID]candidate.Profile
	actions  map[uuid.UUID]candidate.Actions
}

func (f *fakeCandidates) GetProfile(_ context.Context, id uuid.UUID) (candidate.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return candidate.Profile{}, repository.ErrCandidateNotFound
	}
	return p, nil
}

func (f *fakeCandidates) GetActions(_ context.Context, id uuid.UUID) (candidate.Actions, error) {
	return f.actions[id], nil
}

type fakeJobs struct {
	byID    map[uuid.UUID]job.Job
	corpus  []job.Job
	listErr error
	lists   int
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (*job.Job, error) {
	j, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return &j, nil
}

func (f *fakeJobs) ListFeedEligible(_ context.Context, _ int) ([]job.Job, error) {
	f.lists++
	return f.corpus, f.listErr
}

type fakeCorpusVersion struct{ version int64 }

func (f *fakeCorpusVersion) CurrentVersion(context.Context) (int64, error) {
	return f.version, nil
}

type fakeFeedCache struct {
	mu    sync.Mutex
	store map[string][]byte
	locks map[string]bool
	sets  int
}

func newFakeFeedCache() *fakeFeedCache {
	return &fakeFeedCache{store: map[string][]byte{}, locks: map[string]bool{}}
}

func (c *fakeFeedCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *fakeFeedCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = b
	c.sets++
	return nil
}

func (c *fakeFeedCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	delete(c.locks, key)
	return nil
}

func (c *fakeFeedCache) SetIfNotExists(_ context.Context, key, _ string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] {
		return false, nil
	}
	c.locks[key] = true
	return true, nil
}

func feedProfile(id uuid.UUID, skills ...string) candidate.Profile {
	p := candidate.Profile{CandidateID: id}
	for _, s := range skills {
		p.Skills = append(p.Skills, candidate.Skill{Name: s, ProficiencyLevel: 3, YearsExperience: 3})
	}
	return p
}

func feedJob(title string, tags []string) job.Job {
	return job.Job{
		CanonicalID: uuid.New(),
		Source:      job.SourceCompany,
		SourceName:  "acme-careers",
		Title:       title,
		Company:     "acme",
		CompanyID:   "acme",
		SkillTags:   tags,
		TrustScore:  90,
		Liveness:    job.LivenessActive,
		PostedAt:    time.Now().UTC().Add(-24 * time.Hour),
		FirstSeenAt: time.Now().UTC().Add(-24 * time.Hour),
	}
}

func TestGetDailyFeed_ComputesAndCaches(t *testing.T) {
	candID := uuid.New()
	cands := &fakeCandidates{
		profiles: map[uuid.UUID]candidate.Profile{candID: feedProfile(candID, "go", "postgresql")},
		actions:  map[uuid.UUID]candidate.Actions{},
	}
	jobs := &fakeJobs{corpus: []job.Job{feedJob("Go Engineer", []string{"go", "postgresql"})}}
	cache := newFakeFeedCache()

	u := NewFeedUsecase(cands, jobs, &fakeCorpusVersion{version: 3}, cache, nil, nil, time.Hour)

	first, err := u.GetDailyFeed(context.Background(), candID, false)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 match, got %d", len(first))
	}
	if cache.sets != 1 {
		t.Errorf("expected one cache write, got %d", cache.sets)
	}

	second, err := u.GetDailyFeed(context.Background(), candID, false)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if jobs.lists != 1 {
		t.Errorf("second call must come from cache, corpus listed %d times", jobs.lists)
	}
	if len(second) != 1 || second[0].JobID != first[0].JobID {
		t.Errorf("cached feed differs: %+v vs %+v", second, first)
	}
}

func TestGetDailyFeed_BypassSkipsCache(t *testing.T) {
	candID := uuid.New()
	cands := &fakeCandidates{
		profiles: map[uuid.UUID]candidate.Profile{candID: feedProfile(candID, "go")},
		actions:  map[uuid.UUID]candidate.Actions{},
	}
	jobs := &fakeJobs{corpus: []job.Job{feedJob("Go Engineer", []string{"go"})}}
	cache := newFakeFeedCache()

	u := NewFeedUsecase(cands, jobs, &fakeCorpusVersion{}, cache, nil, nil, time.Hour)

	if _, err := u.GetDailyFeed(context.Background(), candID, true); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := u.GetDailyFeed(context.Background(), candID, true); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if jobs.lists != 2 {
		t.Errorf("bypass must recompute, corpus listed %d times", jobs.lists)
	}
	if cache.sets != 0 {
		t.Errorf("bypass must not write cache, got %d writes", cache.sets)
	}
}

func TestGetDailyFeed_ComputeFailureReleasesLock(t *testing.T) {
	candID := uuid.New()
	cands := &fakeCandidates{
		profiles: map[uuid.UUID]candidate.Profile{candID: feedProfile(candID, "go")},
		actions:  map[uuid.UUID]candidate.Actions{},
	}
	jobs := &fakeJobs{listErr: errors.New("db down")}
	cache := newFakeFeedCache()

	u := NewFeedUsecase(cands, jobs, &fakeCorpusVersion{}, cache, nil, nil, time.Hour)

	if _, err := u.GetDailyFeed(context.Background(), candID, false); !errors.Is(err, ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal", err)
	}
	for key, held := range cache.locks {
		if held {
			t.Fatalf("lock %s still held after compute failure", key)
		}
	}

	// The next request must recompute immediately, not wait out the TTL.
	jobs.listErr = nil
	jobs.corpus = []job.Job{feedJob("Go Engineer", []string{"go"})}
	got, err := u.GetDailyFeed(context.Background(), candID, false)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match after recovery, got %d", len(got))
	}
}

func TestGetDailyFeed_UnknownCandidate(t *testing.T) {
	u := NewFeedUsecase(&fakeCandidates{profiles: map[uuid.UUID]candidate.Profile{}}, &fakeJobs{}, &fakeCorpusVersion{}, nil, nil, nil, time.Hour)
	if _, err := u.GetDailyFeed(context.Background(), uuid.New(), false); !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("err = %v, want ErrCandidateNotFound", err)
	}
	if _, err := u.GetDailyFeed(context.Background(), uuid.Nil, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestGetDailyFeed_CorpusVersionChangesKey(t *testing.T) {
	candID := uuid.New()
	cands := &fakeCandidates{
		profiles: map[uuid.UUID]candidate.Profile{candID: feedProfile(candID, "go")},
		actions:  map[uuid.UUID]candidate.Actions{},
	}
	jobs := &fakeJobs{corpus: []job.Job{feedJob("Go Engineer", []string{"go"})}}
	cache := newFakeFeedCache()
	corpus := &fakeCorpusVersion{version: 1}

	u := NewFeedUsecase(cands, jobs, corpus, cache, nil, nil, time.Hour)

	if _, err := u.GetDailyFeed(context.Background(), candID, false); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	corpus.version = 2
	if _, err := u.GetDailyFeed(context.Background(), candID, false); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if jobs.lists != 2 {
		t.Errorf("version bump must force recompute, corpus listed %d times", jobs.lists)
	}
}

func TestGetDailyFeed_ProfileChangeChangesKey(t *testing.T) {
	candID := uuid.New()
	cands := &fakeCandidates{
		profiles: map[uuid.UUID]candidate.Profile{candID: feedProfile(candID, "go")},
		actions:  map[uuid.UUID]candidate.Actions{},
	}
	jobs := &fakeJobs{corpus: []job.Job{feedJob("Go Engineer", []string{"go"})}}
	cache := newFakeFeedCache()

	u := NewFeedUsecase(cands, jobs, &fakeCorpusVersion{}, cache, nil, nil, time.Hour)

	if _, err := u.GetDailyFeed(context.Background(), candID, false); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	cands.profiles[candID] = feedProfile(candID, "go", "kubernetes")
	if _, err := u.GetDailyFeed(context.Background(), candID, false); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if jobs.lists != 2 {
		t.Errorf("profile edit must force recompute, corpus listed %d times", jobs.lists)
	}
}

func TestGetMatchBreakdown(t *testing.T) {
	candID := uuid.New()
	j := feedJob("Go Engineer", []string{"go", "postgresql"})
	cands := &fakeCandidates{
		profiles: map[uuid.UUID]candidate.Profile{candID: feedProfile(candID, "go", "postgresql")},
		actions:  map[uuid.UUID]candidate.Actions{},
	}
	jobs := &fakeJobs{byID: map[uuid.UUID]job.Job{j.CanonicalID: j}}

	u := NewBreakdownUsecase(cands, jobs, nil)
	m, err := u.GetMatchBreakdown(context.Background(), candID, j.CanonicalID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.JobID != j.CanonicalID || m.CandidateID != candID {
		t.Errorf("wrong pair: %+v", m)
	}
	if m.Semantic <= 0 || m.FinalScore <= 0 {
		t.Errorf("expected positive scores: %+v", m)
	}
	if m.Explanation == "" || len(m.MatchedSkills) == 0 {
		t.Errorf("breakdown must explain itself: %+v", m)
	}

	if _, err := u.GetMatchBreakdown(context.Background(), candID, uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
	if _, err := u.GetMatchBreakdown(context.Background(), uuid.New(), j.CanonicalID); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("err = %v, want ErrCandidateNotFound", err)
	}
}
