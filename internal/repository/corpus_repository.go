package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"jobradar/internal/database"
	"jobradar/internal/ingest"

	"github.com/jackc/pgx/v5"
)

// PostgresCorpusRepository owns the single-row corpus version counter and
// the ingestion batch bookkeeping table.
type PostgresCorpusRepository struct {
	db database.DB
}

func NewPostgresCorpusRepository(db database.DB) *PostgresCorpusRepository {
	return &PostgresCorpusRepository{db: db}
}

// BumpCorpusVersion increments and returns the version. Every completed
// batch bumps it exactly once; feed cache keys embed it so stale feeds
// expire naturally.
func (r *PostgresCorpusRepository) BumpCorpusVersion(ctx context.Context) (int64, error) {
	var version int64
	row := r.db.QueryRow(ctx, `
		INSERT INTO corpus_version (id, version, updated_at)
		VALUES (1, 1, NOW())
		ON CONFLICT (id) DO UPDATE SET version = corpus_version.version + 1, updated_at = NOW()
		RETURNING version`)
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (r *PostgresCorpusRepository) CurrentVersion(ctx context.Context) (int64, error) {
	var version int64
	row := r.db.QueryRow(ctx, `SELECT version FROM corpus_version WHERE id = 1`)
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

func (r *PostgresCorpusRepository) RecordBatch(ctx context.Context, report ingest.BatchReport) error {
	sources, err := json.Marshal(report.Sources)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO ingest_runs (started_at, finished_at, corpus_version, sources)
		VALUES ($1, $2, $3, $4)`,
		report.StartedAt, report.FinishedAt, report.CorpusVersion, sources,
	)
	return err
}
