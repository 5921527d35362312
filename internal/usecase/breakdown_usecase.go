package usecase

import (
	"context"
	"errors"

	"jobradar/internal/domain/ranking"
	"jobradar/internal/repository"
	"jobradar/internal/vectorizer"

	"github.com/google/uuid"
)

type BreakdownUsecase interface {
	GetMatchBreakdown(ctx context.Context, candidateID, jobID uuid.UUID) (ranking.Match, error)
}

// Breakdown explains one (candidate, job) pair: every sub-score, the final
// score, matched skills and badges. Pairs below the feed threshold are
// still explained; only the feed filters them.
type Breakdown struct {
	candidates CandidateReader
	jobs       JobReader
	engine     *ranking.Engine
}

func NewBreakdownUsecase(candidates CandidateReader, jobs JobReader, engine *ranking.Engine) *Breakdown {
	if engine == nil {
		engine = ranking.NewEngine()
	}
	return &Breakdown{candidates: candidates, jobs: jobs, engine: engine}
}

func (u *Breakdown) GetMatchBreakdown(ctx context.Context, candidateID, jobID uuid.UUID) (ranking.Match, error) {
	if candidateID == uuid.Nil || jobID == uuid.Nil {
		return ranking.Match{}, ErrInvalidInput
	}

	profile, err := u.candidates.GetProfile(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			return ranking.Match{}, ErrCandidateNotFound
		}
		return ranking.Match{}, ErrInternal
	}

	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return ranking.Match{}, ErrJobNotFound
		}
		return ranking.Match{}, ErrInternal
	}

	actions, err := u.candidates.GetActions(ctx, candidateID)
	if err != nil {
		return ranking.Match{}, ErrInternal
	}

	vec := vectorizer.Vectorize(profile)
	return u.engine.Score(profile, vec, *j, actions), nil
}
