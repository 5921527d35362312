package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"jobradar/internal/database"
	"jobradar/internal/domain/job"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrJobNotFound = errors.New("job not found")
)

// probeClaimLease is how long a claimed job stays invisible to other probe
// runners before it becomes due again.
const probeClaimLease = 15 * time.Minute

const jobColumns = `canonical_id, source, source_name, source_id,
	title, company, company_id, city, region, country, lat, lon, location_raw,
	description, skill_tags, seniority, work_type,
	salary_min, salary_max, salary_currency, url,
	trust_score, liveness_status, out_of_scope, lineage,
	first_seen_at, last_verified_at, posted_at, next_probe_at,
	probe_failures, ever_probed_ok`

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	row := r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE canonical_id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (r *PostgresJobRepository) FindByRawKey(ctx context.Context, src job.Source, sourceName, sourceID string) (*job.Job, error) {
	if sourceID == "" {
		return nil, nil
	}
	row := r.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE source = $1 AND source_name = $2 AND source_id = $3`,
		string(src), sourceName, sourceID,
	)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

func (r *PostgresJobRepository) FindByCompanyID(ctx context.Context, companyID string) ([]job.Job, error) {
	if companyID == "" {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE company_id = $1 AND liveness_status <> 'stale'
		 ORDER BY first_seen_at ASC`,
		companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// Save upserts the canonical record. Re-ingesting identical data lands on
// the same row, so batches are idempotent.
func (r *PostgresJobRepository) Save(ctx context.Context, j job.Job, _ bool) error {
	lineage, err := json.Marshal(j.Lineage)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO jobs (`+jobColumns+`, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31, NOW(), NOW())
		ON CONFLICT (canonical_id) DO UPDATE SET
			source = EXCLUDED.source,
			source_name = EXCLUDED.source_name,
			source_id = EXCLUDED.source_id,
			title = EXCLUDED.title,
			company = EXCLUDED.company,
			company_id = EXCLUDED.company_id,
			city = EXCLUDED.city,
			region = EXCLUDED.region,
			country = EXCLUDED.country,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			location_raw = EXCLUDED.location_raw,
			description = EXCLUDED.description,
			skill_tags = EXCLUDED.skill_tags,
			seniority = EXCLUDED.seniority,
			work_type = EXCLUDED.work_type,
			salary_min = EXCLUDED.salary_min,
			salary_max = EXCLUDED.salary_max,
			salary_currency = EXCLUDED.salary_currency,
			url = EXCLUDED.url,
			trust_score = EXCLUDED.trust_score,
			liveness_status = EXCLUDED.liveness_status,
			out_of_scope = EXCLUDED.out_of_scope,
			lineage = EXCLUDED.lineage,
			last_verified_at = EXCLUDED.last_verified_at,
			posted_at = EXCLUDED.posted_at,
			next_probe_at = EXCLUDED.next_probe_at,
			probe_failures = EXCLUDED.probe_failures,
			ever_probed_ok = EXCLUDED.ever_probed_ok,
			updated_at = NOW()`,
		j.CanonicalID, string(j.Source), j.SourceName, j.SourceID,
		j.Title, j.Company, j.CompanyID,
		j.Location.City, j.Location.Region, j.Location.Country, j.Location.Lat, j.Location.Lon, j.Location.Raw,
		j.Description, j.SkillTags, j.Seniority, string(j.WorkType),
		j.Salary.Min, j.Salary.Max, j.Salary.Currency, j.URL,
		j.TrustScore, string(j.Liveness), j.OutOfScope, lineage,
		j.FirstSeenAt, nullableTime(j.LastVerifiedAt), nullableTime(j.PostedAt), nullableTime(j.NextProbeAt),
		j.ProbeFailures, j.EverProbedOK,
	)
	return err
}

// ListFeedEligible returns the ranking candidate set: in-scope, not stale,
// newest first, bounded.
func (r *PostgresJobRepository) ListFeedEligible(ctx context.Context, limit int) ([]job.Job, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE out_of_scope = FALSE AND liveness_status <> 'stale'
		 ORDER BY posted_at DESC NULLS LAST, first_seen_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ClaimDueProbes atomically leases due jobs so concurrent runners never
// probe the same posting twice. Leased rows get a bumped next_probe_at;
// the probe result overwrites it with the real schedule.
func (r *PostgresJobRepository) ClaimDueProbes(ctx context.Context, now time.Time, limit int) ([]job.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		UPDATE jobs SET next_probe_at = $1
		WHERE canonical_id IN (
			SELECT canonical_id FROM jobs
			WHERE url <> ''
			  AND (next_probe_at IS NULL OR next_probe_at <= $2)
			  AND out_of_scope = FALSE
			ORDER BY liveness_status, next_probe_at NULLS FIRST
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		now.Add(probeClaimLease), now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// UpdateProbeResult writes back the liveness bookkeeping plus the
// repriced trust score; content fields stay untouched so a probe never
// races an ingestion update.
func (r *PostgresJobRepository) UpdateProbeResult(ctx context.Context, j job.Job) error {
	n, err := r.db.Exec(ctx, `
		UPDATE jobs SET
			liveness_status = $2,
			last_verified_at = $3,
			next_probe_at = $4,
			probe_failures = $5,
			ever_probed_ok = $6,
			trust_score = $7,
			updated_at = NOW()
		WHERE canonical_id = $1`,
		j.CanonicalID, string(j.Liveness), nullableTime(j.LastVerifiedAt), nullableTime(j.NextProbeAt),
		j.ProbeFailures, j.EverProbedOK, j.TrustScore,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func collectJobs(rows database.Rows) ([]job.Job, error) {
	out := make([]job.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (job.Job, error) {
	var (
		j         job.Job
		source    string
		workType  string
		liveness  string
		lineage   []byte
		verified  sql.NullTime
		posted    sql.NullTime
		nextProbe sql.NullTime
	)
	err := s.Scan(
		&j.CanonicalID, &source, &j.SourceName, &j.SourceID,
		&j.Title, &j.Company, &j.CompanyID,
		&j.Location.City, &j.Location.Region, &j.Location.Country, &j.Location.Lat, &j.Location.Lon, &j.Location.Raw,
		&j.Description, &j.SkillTags, &j.Seniority, &workType,
		&j.Salary.Min, &j.Salary.Max, &j.Salary.Currency, &j.URL,
		&j.TrustScore, &liveness, &j.OutOfScope, &lineage,
		&j.FirstSeenAt, &verified, &posted, &nextProbe,
		&j.ProbeFailures, &j.EverProbedOK,
	)
	if err != nil {
		return job.Job{}, err
	}

	j.Source = job.Source(source)
	j.WorkType = job.WorkType(workType)
	j.Liveness = job.LivenessStatus(liveness)
	if verified.Valid {
		j.LastVerifiedAt = verified.Time
	}
	if posted.Valid {
		j.PostedAt = posted.Time
	}
	if nextProbe.Valid {
		j.NextProbeAt = nextProbe.Time
	}
	if len(lineage) > 0 {
		if err := json.Unmarshal(lineage, &j.Lineage); err != nil {
			return job.Job{}, err
		}
	}
	return j, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
