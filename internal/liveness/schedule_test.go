package liveness

import (
	"testing"
	"time"

	"jobradar/internal/domain/job"
)

func TestNextProbeIn_Bounds(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	fresh := job.Job{TrustScore: 0, FirstSeenAt: now}
	if got := NextProbeIn(fresh, now); got != minProbeInterval {
		t.Errorf("low-trust fresh job interval = %v, want %v", got, minProbeInterval)
	}

	veteran := job.Job{TrustScore: 100, FirstSeenAt: now.AddDate(0, -3, 0)}
	if got := NextProbeIn(veteran, now); got != maxProbeInterval {
		t.Errorf("high-trust old job interval = %v, want %v", got, maxProbeInterval)
	}
}

func TestNextProbeIn_TrustStretchesInterval(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seen := now.AddDate(0, 0, -3)

	low := NextProbeIn(job.Job{TrustScore: 60, FirstSeenAt: seen}, now)
	high := NextProbeIn(job.Job{TrustScore: 100, FirstSeenAt: seen}, now)
	if high <= low {
		t.Errorf("higher trust must probe less often: trust 60 -> %v, trust 100 -> %v", low, high)
	}
}

func TestApplyOutcome_Transitions(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		from    job.LivenessStatus
		verdict Verdict
		want    job.LivenessStatus
	}{
		{job.LivenessUnknown, VerdictActive, job.LivenessActive},
		{job.LivenessUnknown, VerdictStale, job.LivenessStale},
		{job.LivenessActive, VerdictStale, job.LivenessStale},
		{job.LivenessStale, VerdictActive, job.LivenessActive},
		{job.LivenessActive, VerdictActive, job.LivenessActive},
		{job.LivenessStale, VerdictStale, job.LivenessStale},
	}
	for _, tc := range cases {
		j := job.Job{Liveness: tc.from, TrustScore: 85, FirstSeenAt: now.AddDate(0, 0, -2), ProbeFailures: 2}
		got := ApplyOutcome(j, Outcome{Verdict: tc.verdict}, now)
		if got.Liveness != tc.want {
			t.Errorf("%s + %s = %s, want %s", tc.from, tc.verdict, got.Liveness, tc.want)
		}
		if !got.EverProbedOK || got.ProbeFailures != 0 {
			t.Errorf("%s + %s: bookkeeping not reset: %+v", tc.from, tc.verdict, got)
		}
		if !got.LastVerifiedAt.Equal(now) {
			t.Errorf("lastVerifiedAt = %v, want %v", got.LastVerifiedAt, now)
		}
		if !got.NextProbeAt.After(now) {
			t.Errorf("nextProbeAt must move forward, got %v", got.NextProbeAt)
		}
	}
}

func TestApplyFailure_StatusUnchangedWithBackoff(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	j := job.Job{Liveness: job.LivenessActive, EverProbedOK: true}

	first := ApplyFailure(j, now)
	if first.Liveness != job.LivenessActive {
		t.Errorf("network failure must not change status, got %s", first.Liveness)
	}
	if first.ProbeFailures != 1 {
		t.Errorf("failures = %d, want 1", first.ProbeFailures)
	}

	second := ApplyFailure(first, now)
	if !second.NextProbeAt.After(first.NextProbeAt) {
		t.Errorf("backoff must grow: %v then %v", first.NextProbeAt.Sub(now), second.NextProbeAt.Sub(now))
	}

	// A job that never probed OK stays unknown rather than being guessed
	// stale.
	neverProbed := ApplyFailure(job.Job{Liveness: job.LivenessUnknown}, now)
	if neverProbed.Liveness != job.LivenessUnknown {
		t.Errorf("never-probed job must stay unknown, got %s", neverProbed.Liveness)
	}
}

func TestApplyFailure_BackoffCapped(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	j := job.Job{ProbeFailures: 40}
	got := ApplyFailure(j, now)
	if got.NextProbeAt.Sub(now) != failureBackoffCap {
		t.Errorf("backoff = %v, want cap %v", got.NextProbeAt.Sub(now), failureBackoffCap)
	}
}
