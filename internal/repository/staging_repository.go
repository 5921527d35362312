package repository

import (
	"context"
	"database/sql"

	"jobradar/internal/database"
	"jobradar/internal/domain/job"
)

// PostgresStagingRepository lists first-party postings staged by internal
// tooling for the internal source adapter.
type PostgresStagingRepository struct {
	db database.DB
}

func NewPostgresStagingRepository(db database.DB) *PostgresStagingRepository {
	return &PostgresStagingRepository{db: db}
}

func (r *PostgresStagingRepository) ListStagedPostings(ctx context.Context) ([]job.RawPosting, error) {
	rows, err := r.db.Query(ctx, `
		SELECT staging_id, title, company, location, description, seniority, work_type,
		       salary_min, salary_max, salary_currency, url, posted_at
		FROM staged_postings
		WHERE published = TRUE
		ORDER BY posted_at DESC NULLS LAST`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.RawPosting, 0)
	for rows.Next() {
		var (
			p      job.RawPosting
			posted sql.NullTime
		)
		if err := rows.Scan(
			&p.SourceID, &p.Title, &p.Company, &p.Location, &p.Description, &p.Seniority, &p.WorkType,
			&p.SalaryMin, &p.SalaryMax, &p.Currency, &p.URL, &posted,
		); err != nil {
			return nil, err
		}
		p.Source = job.SourceInternal
		if posted.Valid {
			p.PostedAt = posted.Time
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
