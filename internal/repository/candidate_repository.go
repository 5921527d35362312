package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"jobradar/internal/database"
	"jobradar/internal/domain/candidate"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrCandidateNotFound = errors.New("candidate not found")

// PostgresCandidateRepository reads candidate profiles and job-action
// state. Both tables are owned by external subsystems and consumed
// read-only here.
type PostgresCandidateRepository struct {
	db database.DB
}

func NewPostgresCandidateRepository(db database.DB) *PostgresCandidateRepository {
	return &PostgresCandidateRepository{db: db}
}

func (r *PostgresCandidateRepository) GetProfile(ctx context.Context, candidateID uuid.UUID) (candidate.Profile, error) {
	var raw []byte
	row := r.db.QueryRow(ctx,
		`SELECT profile FROM candidate_profiles WHERE candidate_id = $1`, candidateID)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return candidate.Profile{}, ErrCandidateNotFound
		}
		return candidate.Profile{}, err
	}

	var p candidate.Profile
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return candidate.Profile{}, err
		}
	}
	p.CandidateID = candidateID
	return p, nil
}

// GetActions returns the candidate's exclusions and interactions. A
// candidate with no action row simply has none.
func (r *PostgresCandidateRepository) GetActions(ctx context.Context, candidateID uuid.UUID) (candidate.Actions, error) {
	var excluded, interactions []byte
	row := r.db.QueryRow(ctx,
		`SELECT excluded_job_ids, interactions FROM candidate_actions WHERE candidate_id = $1`,
		candidateID)
	if err := row.Scan(&excluded, &interactions); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return candidate.Actions{}, nil
		}
		return candidate.Actions{}, err
	}

	var a candidate.Actions
	if len(excluded) > 0 {
		if err := json.Unmarshal(excluded, &a.ExcludedJobIDs); err != nil {
			return candidate.Actions{}, err
		}
	}
	if len(interactions) > 0 {
		if err := json.Unmarshal(interactions, &a.Interactions); err != nil {
			return candidate.Actions{}, err
		}
	}
	return a, nil
}
