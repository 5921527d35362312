package liveness

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"jobradar/internal/canonical"
	"jobradar/internal/domain/job"
	"jobradar/internal/pkg/pool"

	"github.com/robfig/cron/v3"
)

// ProbeStore claims and updates jobs due for probing. Claiming must be
// exclusive per job so concurrent runner instances never probe the same
// posting twice.
type ProbeStore interface {
	ClaimDueProbes(ctx context.Context, now time.Time, limit int) ([]job.Job, error)
	UpdateProbeResult(ctx context.Context, j job.Job) error
}

// StatsRecorder feeds probe verdicts into the per-source rolling success
// rate and reads the resulting trust adjustment back so every
// re-verification reprices the job's trust score.
type StatsRecorder interface {
	RecordProbe(ctx context.Context, sourceName string, active bool) error
	TrustAdjust(ctx context.Context, sourceName string) (float64, error)
}

// Runner drives the liveness loop: claim due jobs, probe them on a bounded
// worker pool, write results back.
type Runner struct {
	prober  *Prober
	store   ProbeStore
	stats   StatsRecorder
	logger  *log.Logger
	workers int
	batch   int

	cron *cron.Cron
	now  func() time.Time
}

func NewRunner(prober *Prober, store ProbeStore, stats StatsRecorder, logger *log.Logger, workers, batch int) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if batch <= 0 {
		batch = 100
	}
	return &Runner{
		prober:  prober,
		store:   store,
		stats:   stats,
		logger:  logger,
		workers: workers,
		batch:   batch,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules RunOnce on the given cron spec (e.g. "@every 10m") and
// begins the loop. Stop with Stop().
func (r *Runner) Start(ctx context.Context, spec string) error {
	if r.cron != nil {
		return errors.New("liveness: runner already started")
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logf("[Probe] Cycle failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	r.cron = c
	c.Start()
	r.logf("[Probe] Scheduler started spec=%q workers=%d batch=%d", spec, r.workers, r.batch)
	return nil
}

func (r *Runner) Stop() {
	if r.cron != nil {
		r.cron.Stop()
		r.cron = nil
	}
}

// RunOnce executes one probe cycle over at most one claimed batch.
// Returns how many jobs were probed.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	if r == nil || r.store == nil || r.prober == nil {
		return 0, errors.New("liveness: runner not configured")
	}

	now := r.now()
	jobs, err := r.store.ClaimDueProbes(ctx, now, r.batch)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	p := pool.New(r.workers, len(jobs))
	var mu sync.Mutex
	probed := 0

	results := p.Run(ctx)
	for i := range jobs {
		j := jobs[i]
		p.Submit(func(ctx context.Context) error {
			if err := r.probeOne(ctx, j); err != nil {
				return err
			}
			mu.Lock()
			probed++
			mu.Unlock()
			return nil
		})
	}
	p.Close()

	for err := range results {
		if err != nil {
			r.logf("[Probe] %v", err)
		}
	}

	r.logf("[Probe] Cycle done claimed=%d probed=%d", len(jobs), probed)
	return probed, nil
}

func (r *Runner) probeOne(ctx context.Context, j job.Job) error {
	now := r.now()

	out, err := r.prober.ProbeWithRetry(ctx, j.URL)
	if err != nil {
		// Probe transport failed: the posting's status is not in
		// question, only the schedule moves.
		updated := ApplyFailure(j, now)
		if serr := r.store.UpdateProbeResult(ctx, updated); serr != nil {
			return serr
		}
		r.logf("[Probe] Unreachable job=%s failures=%d err=%v", j.CanonicalID, updated.ProbeFailures, err)
		return nil
	}

	updated := ApplyOutcome(j, out, now)
	if updated.Liveness != j.Liveness {
		r.logf("[Probe] Transition job=%s %s -> %s (%s)", j.CanonicalID, j.Liveness, updated.Liveness, out.Reason)
	}

	// Record the verdict first so the trust recompute sees the rolling
	// window including this probe.
	if r.stats != nil && j.SourceName != "" {
		if err := r.stats.RecordProbe(ctx, j.SourceName, out.Verdict == VerdictActive); err != nil {
			r.logf("[Probe] Stats update failed source=%s: %v", j.SourceName, err)
		}
		if adjust, err := r.stats.TrustAdjust(ctx, j.SourceName); err == nil {
			updated.TrustScore = canonical.TrustScore(j.Source, adjust)
			if updated.TrustScore != j.TrustScore {
				r.logf("[Probe] Trust reprice job=%s %d -> %d", j.CanonicalID, j.TrustScore, updated.TrustScore)
			}
		}
	}

	return r.store.UpdateProbeResult(ctx, updated)
}

func (r *Runner) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
