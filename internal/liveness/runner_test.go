package liveness

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"jobradar/internal/domain/job"

	"github.com/google/uuid"
)

type fakeProbeStore struct {
	mu      sync.Mutex
	due     []job.Job
	updated map[uuid.UUID]job.Job
	claims  int
}

func newFakeProbeStore(due ...job.Job) *fakeProbeStore {
	return &fakeProbeStore{due: due, updated: map[uuid.UUID]job.Job{}}
}

func (s *fakeProbeStore) ClaimDueProbes(_ context.Context, _ time.Time, limit int) ([]job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims++
	if len(s.due) > limit {
		out := s.due[:limit]
		s.due = s.due[limit:]
		return out, nil
	}
	out := s.due
	s.due = nil
	return out, nil
}

func (s *fakeProbeStore) UpdateProbeResult(_ context.Context, j job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated[j.CanonicalID] = j
	return nil
}

type fakeStats struct {
	mu        sync.Mutex
	records   map[string][]bool
	err       error
	adjust    float64
	adjustErr error
}

func (s *fakeStats) RecordProbe(_ context.Context, sourceName string, active bool) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = map[string][]bool{}
	}
	s.records[sourceName] = append(s.records[sourceName], active)
	return nil
}

func (s *fakeStats) TrustAdjust(_ context.Context, _ string) (float64, error) {
	return s.adjust, s.adjustErr
}

func probeJob(url string, status job.LivenessStatus) job.Job {
	return job.Job{
		CanonicalID: uuid.New(),
		Source:      job.SourceAggregator,
		SourceName:  "boardfeed",
		URL:         url,
		TrustScore:  60,
		Liveness:    status,
		FirstSeenAt: time.Now().UTC().AddDate(0, 0, -1),
	}
}

func TestRunOnce_ProbesAndUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/open":
			fmt.Fprint(w, "<html><body>Apply now</body></html>")
		case "/gone":
			w.WriteHeader(http.StatusGone)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	open := probeJob(srv.URL+"/open", job.LivenessUnknown)
	gone := probeJob(srv.URL+"/gone", job.LivenessActive)
	store := newFakeProbeStore(open, gone)
	stats := &fakeStats{}

	r := NewRunner(NewProber(), store, stats, nil, 2, 10)
	probed, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if probed != 2 {
		t.Fatalf("probed = %d, want 2", probed)
	}

	if got := store.updated[open.CanonicalID]; got.Liveness != job.LivenessActive || !got.EverProbedOK {
		t.Errorf("open posting: %+v", got)
	}
	if got := store.updated[gone.CanonicalID]; got.Liveness != job.LivenessStale {
		t.Errorf("gone posting: %+v", got)
	}

	if got := stats.records["boardfeed"]; len(got) != 2 {
		t.Errorf("expected 2 stat records, got %v", got)
	}
}

func TestRunOnce_NetworkFailureLeavesStatusAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	active := probeJob(srv.URL+"/jobs/1", job.LivenessActive)
	active.EverProbedOK = true
	store := newFakeProbeStore(active)
	stats := &fakeStats{}

	r := NewRunner(NewProber(), store, stats, nil, 1, 10)
	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, ok := store.updated[active.CanonicalID]
	if !ok {
		t.Fatal("failed probe must still reschedule the job")
	}
	if got.Liveness != job.LivenessActive {
		t.Errorf("status changed on network failure: %s", got.Liveness)
	}
	if got.ProbeFailures != 1 {
		t.Errorf("failures = %d, want 1", got.ProbeFailures)
	}
	if len(stats.records) != 0 {
		t.Errorf("failed probes must not feed source stats, got %v", stats.records)
	}
}

func TestRunOnce_ReverificationRepricesTrust(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>Apply now</body></html>")
	}))
	defer srv.Close()

	// Ingested long ago at baseline 60; the source's rolling success
	// rate has since collapsed.
	j := probeJob(srv.URL+"/jobs/1", job.LivenessActive)
	store := newFakeProbeStore(j)
	stats := &fakeStats{adjust: -1}

	r := NewRunner(NewProber(), store, stats, nil, 1, 10)
	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got := store.updated[j.CanonicalID]
	if got.TrustScore != 45 {
		t.Errorf("trust = %d, want repriced 45 (baseline 60 - 15)", got.TrustScore)
	}
	if got.Liveness != job.LivenessActive {
		t.Errorf("liveness = %s, want active", got.Liveness)
	}

	// A recovered source raises the score back on the next verification.
	store2 := newFakeProbeStore(got)
	stats2 := &fakeStats{adjust: 1}
	r2 := NewRunner(NewProber(), store2, stats2, nil, 1, 10)
	if _, err := r2.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got2 := store2.updated[got.CanonicalID]; got2.TrustScore != 75 {
		t.Errorf("trust = %d, want repriced 75 (baseline 60 + 15)", got2.TrustScore)
	}
}

func TestRunOnce_FailedProbeKeepsTrust(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	j := probeJob(srv.URL+"/jobs/1", job.LivenessActive)
	store := newFakeProbeStore(j)

	r := NewRunner(NewProber(), store, &fakeStats{adjust: -1}, nil, 1, 10)
	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// No verdict means no re-verification; the score must not move.
	if got := store.updated[j.CanonicalID]; got.TrustScore != j.TrustScore {
		t.Errorf("trust = %d, want unchanged %d", got.TrustScore, j.TrustScore)
	}
}

func TestRunOnce_EmptyQueueIsNoop(t *testing.T) {
	store := newFakeProbeStore()
	r := NewRunner(NewProber(), store, nil, nil, 2, 10)
	probed, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if probed != 0 {
		t.Errorf("probed = %d, want 0", probed)
	}
}

func TestRunOnce_RespectsBatchLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	jobs := make([]job.Job, 5)
	for i := range jobs {
		jobs[i] = probeJob(srv.URL+fmt.Sprintf("/jobs/%d", i), job.LivenessUnknown)
	}
	store := newFakeProbeStore(jobs...)

	r := NewRunner(NewProber(), store, nil, nil, 2, 3)
	probed, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if probed != 3 {
		t.Errorf("probed = %d, want batch limit 3", probed)
	}
}

func TestRunner_StartRejectsBadSpec(t *testing.T) {
	r := NewRunner(NewProber(), newFakeProbeStore(), nil, nil, 1, 1)
	if err := r.Start(context.Background(), "not a cron spec"); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if err := r.Start(context.Background(), "@every 10m"); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
	defer r.Stop()
	if err := r.Start(context.Background(), "@every 10m"); err == nil {
		t.Fatal("double start must fail")
	}
}
