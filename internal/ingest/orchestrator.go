package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"jobradar/internal/canonical"
	"jobradar/internal/dedup"
	"jobradar/internal/domain/job"
)

// ErrUnknownSource is returned for a source filter naming no registered
// adapter.
var ErrUnknownSource = errors.New("unknown ingest source")

// Store is the slice of the job store the orchestrator mutates. Only the
// ingestion path and the liveness prober ever write jobs.
type Store interface {
	FindByRawKey(ctx context.Context, src job.Source, sourceName, sourceID string) (*job.Job, error)
	FindByCompanyID(ctx context.Context, companyID string) ([]job.Job, error)
	Save(ctx context.Context, j job.Job, isNew bool) error
	BumpCorpusVersion(ctx context.Context) (int64, error)
	RecordBatch(ctx context.Context, report BatchReport) error
}

// SourceStats exposes the rolling probe success adjustment per source,
// fed into trust scoring. Missing history adjusts by zero.
type SourceStats interface {
	TrustAdjust(ctx context.Context, sourceName string) (float64, error)
}

// SourceReport counts one adapter's outcome within a batch.
type SourceReport struct {
	Source   string `json:"source"`
	Fetched  int    `json:"fetched"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	FetchErr string `json:"fetch_error,omitempty"`
}

// BatchReport is the bookkeeping row for one ingestion batch.
type BatchReport struct {
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Sources       []SourceReport `json:"sources"`
	CorpusVersion int64          `json:"corpus_version"`
}

// Orchestrator runs one ingestion batch: all adapters fetch concurrently,
// then postings are canonicalized and deduplicated in stable discovery
// order so re-running over identical input is idempotent.
type Orchestrator struct {
	adapters []Adapter
	canon    *canonical.Canonicalizer
	dedup    *dedup.Deduplicator
	store    Store
	stats    SourceStats
	logger   *log.Logger

	fetchTimeout time.Duration
}

func NewOrchestrator(adapters []Adapter, canon *canonical.Canonicalizer, d *dedup.Deduplicator, store Store, stats SourceStats, logger *log.Logger, fetchTimeout time.Duration) *Orchestrator {
	if fetchTimeout <= 0 {
		fetchTimeout = 2 * time.Minute
	}
	return &Orchestrator{
		adapters:     adapters,
		canon:        canon,
		dedup:        d,
		store:        store,
		stats:        stats,
		logger:       logger,
		fetchTimeout: fetchTimeout,
	}
}

type fetchOutcome struct {
	order    int
	adapter  Adapter
	postings []job.RawPosting
	err      error
}

// RunBatch executes one full batch. Adapter failures are contained and
// reported per source; only store failures abort, and the batch is safe to
// re-run from scratch. Returns the report with the new corpus version.
func (o *Orchestrator) RunBatch(ctx context.Context) (BatchReport, error) {
	return o.runBatch(ctx, o.adapters)
}

// RunBatchSource runs a batch over a single registered adapter.
func (o *Orchestrator) RunBatchSource(ctx context.Context, sourceName string) (BatchReport, error) {
	if o == nil {
		return BatchReport{}, errors.New("orchestrator: nil")
	}
	for _, a := range o.adapters {
		if a.Name() == sourceName {
			return o.runBatch(ctx, []Adapter{a})
		}
	}
	return BatchReport{}, fmt.Errorf("%w: %q", ErrUnknownSource, sourceName)
}

func (o *Orchestrator) runBatch(ctx context.Context, adapters []Adapter) (BatchReport, error) {
	report := BatchReport{StartedAt: time.Now().UTC()}
	if o == nil || o.store == nil {
		return report, errors.New("orchestrator: nil store")
	}

	outcomes := o.fetchAll(ctx, adapters)

	for _, oc := range outcomes {
		sr := SourceReport{Source: oc.adapter.Name(), Fetched: len(oc.postings)}
		if oc.err != nil {
			sr.FetchErr = oc.err.Error()
			o.logf("[Ingest] Fetch failed source=%s err=%v", oc.adapter.Name(), oc.err)
		}

		adjust := 0.0
		if o.stats != nil {
			if a, err := o.stats.TrustAdjust(ctx, oc.adapter.Name()); err == nil {
				adjust = a
			}
		}

		for _, raw := range oc.postings {
			created, err := o.ingestOne(ctx, raw, adjust)
			if err != nil {
				if errors.Is(err, canonical.ErrMalformedPosting) {
					sr.Skipped++
					o.logf("[Ingest] Skipped malformed posting source=%s url=%s", oc.adapter.Name(), raw.URL)
					continue
				}
				// Store-level failure: abort, the batch is retryable.
				report.Sources = append(report.Sources, sr)
				return report, err
			}
			if created {
				sr.Created++
			} else {
				sr.Updated++
			}
		}

		report.Sources = append(report.Sources, sr)
	}

	version, err := o.store.BumpCorpusVersion(ctx)
	if err != nil {
		return report, err
	}
	report.CorpusVersion = version
	report.FinishedAt = time.Now().UTC()

	if err := o.store.RecordBatch(ctx, report); err != nil {
		o.logf("[Ingest] Batch bookkeeping failed: %v", err)
	}
	o.logf("[Ingest] Batch done version=%d sources=%d", version, len(report.Sources))
	return report, nil
}

// fetchAll runs every adapter concurrently, one worker per source, each
// with its own timeout. Results come back in registration order so the
// downstream merge order is stable.
func (o *Orchestrator) fetchAll(ctx context.Context, adapters []Adapter) []fetchOutcome {
	outcomes := make([]fetchOutcome, 0, len(adapters))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, a := range adapters {
		wg.Add(1)
		go func(order int, a Adapter) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
			defer cancel()

			postings, err := a.Fetch(fctx)
			mu.Lock()
			outcomes = append(outcomes, fetchOutcome{order: order, adapter: a, postings: postings, err: err})
			mu.Unlock()
		}(i, a)
	}
	wg.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].order < outcomes[j].order })
	return outcomes
}

func (o *Orchestrator) ingestOne(ctx context.Context, raw job.RawPosting, adjust float64) (bool, error) {
	incoming, err := o.canon.Canonicalize(raw, adjust)
	if err != nil {
		return false, err
	}

	candidates, err := o.loadMergeCandidates(ctx, incoming)
	if err != nil {
		return false, err
	}

	merged, isNew := o.dedup.Merge(candidates, incoming)
	if err := o.store.Save(ctx, merged, isNew); err != nil {
		return false, err
	}
	return isNew, nil
}

func (o *Orchestrator) loadMergeCandidates(ctx context.Context, incoming job.Job) ([]job.Job, error) {
	out := make([]job.Job, 0, 8)

	if incoming.SourceID != "" {
		existing, err := o.store.FindByRawKey(ctx, incoming.Source, incoming.SourceName, incoming.SourceID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			out = append(out, *existing)
		}
	}

	if incoming.CompanyID != "" {
		same, err := o.store.FindByCompanyID(ctx, incoming.CompanyID)
		if err != nil {
			return nil, err
		}
		for _, j := range same {
			if len(out) > 0 && j.CanonicalID == out[0].CanonicalID {
				continue
			}
			out = append(out, j)
		}
	}
	return out, nil
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}
