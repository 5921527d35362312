package schema

import (
	"context"
	"fmt"

	"jobradar/internal/database"
)

// statements is the idempotent DDL for everything this service owns.
// candidate_profiles and candidate_actions belong to external subsystems;
// they are created here only so a fresh local database works end to end.
var statements = []struct {
	name string
	ddl  string
}{
	{"jobs", `
		CREATE TABLE IF NOT EXISTS jobs (
			canonical_id    UUID PRIMARY KEY,
			source          TEXT NOT NULL,
			source_name     TEXT NOT NULL DEFAULT '',
			source_id       TEXT NOT NULL DEFAULT '',
			title           TEXT NOT NULL,
			company         TEXT NOT NULL DEFAULT '',
			company_id      TEXT NOT NULL DEFAULT '',
			city            TEXT NOT NULL DEFAULT '',
			region          TEXT NOT NULL DEFAULT '',
			country         TEXT NOT NULL DEFAULT '',
			lat             DOUBLE PRECISION NOT NULL DEFAULT 0,
			lon             DOUBLE PRECISION NOT NULL DEFAULT 0,
			location_raw    TEXT NOT NULL DEFAULT '',
			description     TEXT NOT NULL DEFAULT '',
			skill_tags      TEXT[] NOT NULL DEFAULT '{}',
			seniority       TEXT NOT NULL DEFAULT '',
			work_type       TEXT NOT NULL DEFAULT '',
			salary_min      DOUBLE PRECISION NOT NULL DEFAULT 0,
			salary_max      DOUBLE PRECISION NOT NULL DEFAULT 0,
			salary_currency TEXT NOT NULL DEFAULT '',
			url             TEXT NOT NULL DEFAULT '',
			trust_score     INT NOT NULL DEFAULT 0,
			liveness_status TEXT NOT NULL DEFAULT 'unknown',
			out_of_scope    BOOLEAN NOT NULL DEFAULT FALSE,
			lineage         JSONB NOT NULL DEFAULT '[]',
			first_seen_at   TIMESTAMPTZ NOT NULL,
			last_verified_at TIMESTAMPTZ,
			posted_at       TIMESTAMPTZ,
			next_probe_at   TIMESTAMPTZ,
			probe_failures  INT NOT NULL DEFAULT 0,
			ever_probed_ok  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"jobs_raw_key_idx", `
		CREATE UNIQUE INDEX IF NOT EXISTS jobs_raw_key_idx
		ON jobs (source, source_name, source_id)
		WHERE source_id <> ''`},
	{"jobs_probe_idx", `
		CREATE INDEX IF NOT EXISTS jobs_probe_idx
		ON jobs (liveness_status, next_probe_at)`},
	{"jobs_trust_idx", `
		CREATE INDEX IF NOT EXISTS jobs_trust_idx
		ON jobs (trust_score)`},
	{"jobs_company_idx", `
		CREATE INDEX IF NOT EXISTS jobs_company_idx
		ON jobs (company_id)`},
	{"source_stats", `
		CREATE TABLE IF NOT EXISTS source_stats (
			source_name TEXT PRIMARY KEY,
			probes      JSONB NOT NULL DEFAULT '[]',
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"corpus_version", `
		CREATE TABLE IF NOT EXISTS corpus_version (
			id         INT PRIMARY KEY,
			version    BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"ingest_runs", `
		CREATE TABLE IF NOT EXISTS ingest_runs (
			id             BIGSERIAL PRIMARY KEY,
			started_at     TIMESTAMPTZ NOT NULL,
			finished_at    TIMESTAMPTZ,
			corpus_version BIGINT NOT NULL DEFAULT 0,
			sources        JSONB NOT NULL DEFAULT '[]'
		)`},
	{"staged_postings", `
		CREATE TABLE IF NOT EXISTS staged_postings (
			staging_id      TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			company         TEXT NOT NULL DEFAULT '',
			location        TEXT NOT NULL DEFAULT '',
			description     TEXT NOT NULL DEFAULT '',
			seniority       TEXT NOT NULL DEFAULT '',
			work_type       TEXT NOT NULL DEFAULT '',
			salary_min      DOUBLE PRECISION NOT NULL DEFAULT 0,
			salary_max      DOUBLE PRECISION NOT NULL DEFAULT 0,
			salary_currency TEXT NOT NULL DEFAULT '',
			url             TEXT NOT NULL DEFAULT '',
			posted_at       TIMESTAMPTZ,
			published       BOOLEAN NOT NULL DEFAULT FALSE
		)`},
	{"candidate_profiles", `
		CREATE TABLE IF NOT EXISTS candidate_profiles (
			candidate_id UUID PRIMARY KEY,
			profile      JSONB NOT NULL DEFAULT '{}',
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"candidate_actions", `
		CREATE TABLE IF NOT EXISTS candidate_actions (
			candidate_id     UUID PRIMARY KEY,
			excluded_job_ids JSONB NOT NULL DEFAULT '[]',
			interactions     JSONB NOT NULL DEFAULT '[]',
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
}

// Ensure creates missing tables and indexes. Safe to run on every start.
func Ensure(ctx context.Context, db database.DB) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	for _, s := range statements {
		if _, err := db.Exec(ctx, s.ddl); err != nil {
			return fmt.Errorf("schema %s: %w", s.name, err)
		}
	}
	return nil
}
