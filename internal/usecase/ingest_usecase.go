package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"jobradar/internal/ingest"
)

// ingestLockTTL bounds how long a crashed batch can hold the global lock.
const ingestLockTTL = 10 * time.Minute

const ingestLockKey = "ingest:lock"

type BatchRunner interface {
	RunBatch(ctx context.Context) (ingest.BatchReport, error)
	RunBatchSource(ctx context.Context, sourceName string) (ingest.BatchReport, error)
}

type feedInvalidator interface {
	InvalidateFeeds(ctx context.Context) error
}

type IngestUsecase interface {
	TriggerBatch(ctx context.Context, source string) (ingest.BatchReport, error)
}

// Ingest triggers batches on demand. A Redis lock keeps overlapping
// triggers (manual + scheduled) from running two batches at once; batches
// are idempotent, so overlap would waste work rather than corrupt data.
type Ingest struct {
	runner BatchRunner
	cache  FeedCache
	feeds  feedInvalidator
	logger *log.Logger
}

func NewIngestUsecase(runner BatchRunner, cache FeedCache, feeds feedInvalidator, logger *log.Logger) *Ingest {
	return &Ingest{runner: runner, cache: cache, feeds: feeds, logger: logger}
}

func (u *Ingest) TriggerBatch(ctx context.Context, source string) (ingest.BatchReport, error) {
	if u == nil || u.runner == nil {
		return ingest.BatchReport{}, ErrInternal
	}

	if u.cache != nil {
		ok, err := u.cache.SetIfNotExists(ctx, ingestLockKey, "1", ingestLockTTL)
		if err == nil && !ok {
			return ingest.BatchReport{}, ErrBatchAlreadyActive
		}
		defer func() { _ = u.cache.Delete(ctx, ingestLockKey) }()
	}

	var (
		report ingest.BatchReport
		err    error
	)
	source = strings.TrimSpace(source)
	if source == "" {
		report, err = u.runner.RunBatch(ctx)
	} else {
		report, err = u.runner.RunBatchSource(ctx, source)
	}
	if err != nil {
		if errors.Is(err, ingest.ErrUnknownSource) {
			return ingest.BatchReport{}, ErrUnknownSource
		}
		return ingest.BatchReport{}, ErrInternal
	}

	if u.feeds != nil {
		if err := u.feeds.InvalidateFeeds(ctx); err != nil && u.logger != nil {
			u.logger.Printf("[Ingest] Feed invalidation failed: %v", err)
		}
	}
	return report, nil
}
