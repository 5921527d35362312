package liveness

import (
	"time"

	"jobradar/internal/domain/job"
)

const (
	// Probe interval bounds: low-trust fresh postings roughly daily,
	// high-trust long-lived postings roughly weekly.
	minProbeInterval = 24 * time.Hour
	maxProbeInterval = 7 * 24 * time.Hour

	// ageSaturationDays is where posting age stops stretching the
	// interval any further.
	ageSaturationDays = 30

	failureBackoffBase = time.Hour
	failureBackoffCap  = 24 * time.Hour
)

// NextProbeIn derives the probe interval from trust and age. Both pull the
// interval toward the weekly end: trusted sources need less policing, and
// old postings change state rarely.
func NextProbeIn(j job.Job, now time.Time) time.Duration {
	trustFactor := float64(j.TrustScore) / 100
	if trustFactor < 0 {
		trustFactor = 0
	}
	if trustFactor > 1 {
		trustFactor = 1
	}

	ageFactor := 0.0
	if !j.FirstSeenAt.IsZero() {
		days := now.Sub(j.FirstSeenAt).Hours() / 24
		if days < 0 {
			days = 0
		}
		if days > ageSaturationDays {
			days = ageSaturationDays
		}
		ageFactor = days / ageSaturationDays
	}

	blend := 0.6*trustFactor + 0.4*ageFactor
	return minProbeInterval + time.Duration(blend*float64(maxProbeInterval-minProbeInterval))
}

// ApplyOutcome folds a successful probe into the job: status transition,
// verification timestamp, failure counter reset, next schedule slot.
// Transitions outside the state machine (including no-op self moves) only
// refresh the bookkeeping.
func ApplyOutcome(j job.Job, out Outcome, now time.Time) job.Job {
	target := job.LivenessActive
	if out.Verdict == VerdictStale {
		target = job.LivenessStale
	}

	if job.CanTransition(j.Liveness, target) {
		j.Liveness = target
	}
	j.LastVerifiedAt = now
	j.EverProbedOK = true
	j.ProbeFailures = 0
	j.NextProbeAt = now.Add(NextProbeIn(j, now))
	return j
}

// ApplyFailure folds a failed probe in: status stays as it was, the job is
// rescheduled with exponential backoff. Jobs that never had a successful
// probe simply remain unknown.
func ApplyFailure(j job.Job, now time.Time) job.Job {
	j.ProbeFailures++

	shift := j.ProbeFailures - 1
	if shift > 5 {
		shift = 5
	}
	backoff := failureBackoffBase << shift
	if backoff > failureBackoffCap {
		backoff = failureBackoffCap
	}
	j.NextProbeAt = now.Add(backoff)
	return j
}
