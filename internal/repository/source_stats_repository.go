package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"jobradar/internal/database"

	"github.com/jackc/pgx/v5"
)

// statsWindow bounds the rolling probe history per source.
const statsWindow = 50

// minProbesForAdjust is the history size below which the adjustment is
// zero: a handful of probes says nothing about a source.
const minProbesForAdjust = 10

// PostgresSourceStatsRepository keeps the per-source rolling probe window
// that feeds trust score adjustment.
type PostgresSourceStatsRepository struct {
	db database.DB
}

func NewPostgresSourceStatsRepository(db database.DB) *PostgresSourceStatsRepository {
	return &PostgresSourceStatsRepository{db: db}
}

// RecordProbe appends one verdict to the source's window, trimming to the
// last statsWindow entries. Runs in a transaction so concurrent probe
// workers never drop each other's entries.
func (r *PostgresSourceStatsRepository) RecordProbe(ctx context.Context, sourceName string, active bool) error {
	if sourceName == "" {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	row := tx.QueryRow(ctx,
		`SELECT probes FROM source_stats WHERE source_name = $1 FOR UPDATE`, sourceName)
	if err := row.Scan(&raw); err != nil {
		if !errors.Is(err, sql.ErrNoRows) && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}

	var probes []bool
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &probes); err != nil {
			probes = nil
		}
	}
	probes = append(probes, active)
	if len(probes) > statsWindow {
		probes = probes[len(probes)-statsWindow:]
	}

	b, err := json.Marshal(probes)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO source_stats (source_name, probes, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (source_name) DO UPDATE SET probes = EXCLUDED.probes, updated_at = NOW()`,
		sourceName, b,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TrustAdjust maps the source's rolling success rate into [-1, 1] around
// its baseline: all probes active = +1, none = -1, unknown source = 0.
func (r *PostgresSourceStatsRepository) TrustAdjust(ctx context.Context, sourceName string) (float64, error) {
	var raw []byte
	row := r.db.QueryRow(ctx, `SELECT probes FROM source_stats WHERE source_name = $1`, sourceName)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}

	var probes []bool
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &probes); err != nil {
			return 0, err
		}
	}
	if len(probes) < minProbesForAdjust {
		return 0, nil
	}

	ok := 0
	for _, p := range probes {
		if p {
			ok++
		}
	}
	rate := float64(ok) / float64(len(probes))
	return (rate - 0.5) * 2, nil
}
