package ingest

import (
	"context"
	"fmt"

	"jobradar/internal/domain/job"
)

// StagingStore lists first-party postings staged by internal tooling.
type StagingStore interface {
	ListStagedPostings(ctx context.Context) ([]job.RawPosting, error)
}

// InternalAdapter ingests the company's own postings from the staging
// table. No transport involved; still an adapter so the orchestrator
// treats every origin uniformly.
type InternalAdapter struct {
	store StagingStore
}

func NewInternalAdapter(store StagingStore) *InternalAdapter {
	return &InternalAdapter{store: store}
}

func (a *InternalAdapter) Name() string       { return "internal-postings" }
func (a *InternalAdapter) Source() job.Source { return job.SourceInternal }

func (a *InternalAdapter) Fetch(ctx context.Context) ([]job.RawPosting, error) {
	if a == nil || a.store == nil {
		return nil, fmt.Errorf("internal adapter: nil staging store")
	}
	raws, err := a.store.ListStagedPostings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		raws[i].Source = job.SourceInternal
		if raws[i].SourceName == "" {
			raws[i].SourceName = a.Name()
		}
	}
	return raws, nil
}
