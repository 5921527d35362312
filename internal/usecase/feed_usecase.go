package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"jobradar/internal/domain/candidate"
	"jobradar/internal/domain/job"
	"jobradar/internal/domain/ranking"
	"jobradar/internal/repository"
	"jobradar/internal/vectorizer"

	"github.com/google/uuid"
)

// corpusCandidates bounds how many feed-eligible jobs one ranking pass
// considers.
const corpusCandidates = 500

type CandidateReader interface {
	GetProfile(ctx context.Context, candidateID uuid.UUID) (candidate.Profile, error)
	GetActions(ctx context.Context, candidateID uuid.UUID) (candidate.Actions, error)
}

type JobReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*job.Job, error)
	ListFeedEligible(ctx context.Context, limit int) ([]job.Job, error)
}

type CorpusVersionReader interface {
	CurrentVersion(ctx context.Context) (int64, error)
}

type FeedUsecase interface {
	GetDailyFeed(ctx context.Context, candidateID uuid.UUID, bypassCache bool) ([]ranking.Match, error)
}

type Feed struct {
	candidates CandidateReader
	jobs       JobReader
	corpus     CorpusVersionReader
	cache      FeedCache
	engine     *ranking.Engine
	logger     *log.Logger
	ttl        time.Duration
}

func NewFeedUsecase(candidates CandidateReader, jobs JobReader, corpus CorpusVersionReader, cache FeedCache, engine *ranking.Engine, logger *log.Logger, ttl time.Duration) *Feed {
	if engine == nil {
		engine = ranking.NewEngine()
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Feed{candidates: candidates, jobs: jobs, corpus: corpus, cache: cache, engine: engine, logger: logger, ttl: ttl}
}

// GetDailyFeed returns the candidate's ranked feed, serving from cache
// when the (profile hash, corpus version) pair is unchanged. A short lock
// keeps concurrent misses for the same candidate from recomputing the
// same feed in parallel.
func (u *Feed) GetDailyFeed(ctx context.Context, candidateID uuid.UUID, bypassCache bool) ([]ranking.Match, error) {
	if candidateID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	profile, err := u.candidates.GetProfile(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, ErrInternal
	}

	version := int64(0)
	if u.corpus != nil {
		if v, err := u.corpus.CurrentVersion(ctx); err == nil {
			version = v
		}
	}

	cacheKey := DailyFeedCacheKey(candidateID.String(), profile.ContentHash(), version)
	lockKey := FeedLockKey(cacheKey)

	if !bypassCache && u.cache != nil {
		var cached []ranking.Match
		hit, err := u.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && hit {
			u.logf("[Feed] Cache HIT: %s", cacheKey)
			return cached, nil
		}
		u.logf("[Feed] Cache MISS: %s", cacheKey)
	}

	if !bypassCache && u.cache != nil {
		ok, err := u.cache.SetIfNotExists(ctx, lockKey, "1", 30*time.Second)
		if err == nil && ok {
			// Release on every exit, including compute failures, so
			// waiters never sit out the full lock TTL.
			defer func() { _ = u.cache.Delete(ctx, lockKey) }()
		} else if err == nil && !ok {
			// Another request is computing this exact feed; give it a
			// moment and re-check before doing the work twice.
			jitter := time.Duration(time.Now().UnixNano()%201) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(300*time.Millisecond + jitter):
			}
			var cached []ranking.Match
			if hit, err2 := u.cache.GetJSON(ctx, cacheKey, &cached); err2 == nil && hit {
				u.logf("[Feed] Cache HIT after lock wait: %s", cacheKey)
				return cached, nil
			}
		}
	}

	matches, err := u.computeFeed(ctx, profile, candidateID)
	if err != nil {
		return nil, err
	}

	if !bypassCache && u.cache != nil {
		_ = u.cache.SetJSON(ctx, cacheKey, matches, u.ttl)
		u.logf("[Feed] Cache SET: %s entries=%d", cacheKey, len(matches))
	}
	return matches, nil
}

func (u *Feed) computeFeed(ctx context.Context, profile candidate.Profile, candidateID uuid.UUID) ([]ranking.Match, error) {
	actions, err := u.candidates.GetActions(ctx, candidateID)
	if err != nil {
		return nil, ErrInternal
	}

	corpus, err := u.jobs.ListFeedEligible(ctx, corpusCandidates)
	if err != nil {
		return nil, ErrInternal
	}

	vec := vectorizer.Vectorize(profile)
	return u.engine.Rank(profile, vec, corpus, actions), nil
}

func (u *Feed) logf(format string, args ...any) {
	if u.logger != nil {
		u.logger.Printf(format, args...)
	}
}
