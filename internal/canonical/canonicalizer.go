package canonical

import (
	"errors"
	"strings"
	"time"

	"jobradar/internal/domain/job"

	"github.com/google/uuid"
)

// Trust score baselines per source kind. The rolling probe success rate of
// a source adjusts around the baseline but never overrides it.
const (
	TrustInternal   = 100
	TrustCompany    = 85
	TrustAggregator = 60

	// maxTrustAdjust bounds how far probe history can move a score
	// from its baseline, in either direction.
	maxTrustAdjust = 15
)

var ErrMalformedPosting = errors.New("malformed posting")

// Options control per-deployment canonicalization behavior.
type Options struct {
	// OnlyUS flags postings without a resolvable US country as out of
	// scope for default feeds. They are still stored for audit.
	OnlyUS bool
}

// Canonicalizer maps raw postings into canonical jobs. sourceAdjust is the
// per-source trust adjustment derived from probe history, in [-1, 1].
type Canonicalizer struct {
	opts Options
}

func New(opts Options) *Canonicalizer {
	return &Canonicalizer{opts: opts}
}

// Canonicalize builds a partially-filled canonical Job from one raw
// posting. Skill inference is best effort; a missing title or a record
// with neither source id nor URL is malformed and skipped by the caller.
func (c *Canonicalizer) Canonicalize(raw job.RawPosting, sourceAdjust float64) (job.Job, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return job.Job{}, ErrMalformedPosting
	}
	if strings.TrimSpace(raw.SourceID) == "" && strings.TrimSpace(raw.URL) == "" {
		return job.Job{}, ErrMalformedPosting
	}

	company, companyID := NormalizeCompany(raw.Company)
	loc := NormalizeLocation(raw.Location)

	now := time.Now().UTC()
	fetched := raw.FetchedAt
	if fetched.IsZero() {
		fetched = now
	}

	j := job.Job{
		CanonicalID: uuid.New(),
		Source:      raw.Source,
		SourceName:  strings.TrimSpace(raw.SourceName),
		SourceID:    strings.TrimSpace(raw.SourceID),
		Title:       title,
		Company:     company,
		CompanyID:   companyID,
		Location:    loc,
		Description: strings.TrimSpace(raw.Description),
		SkillTags:   InferSkills(raw.Title, raw.Description),
		Seniority:   strings.ToLower(strings.TrimSpace(raw.Seniority)),
		WorkType:    parseWorkType(raw.WorkType, raw.Location),
		URL:         strings.TrimSpace(raw.URL),
		TrustScore:  TrustScore(raw.Source, sourceAdjust),
		Liveness:    job.LivenessUnknown,
		FirstSeenAt: fetched,
		PostedAt:    raw.PostedAt.UTC(),
	}
	if raw.SalaryMin > 0 || raw.SalaryMax > 0 {
		j.Salary = job.SalaryRange{Min: raw.SalaryMin, Max: raw.SalaryMax, Currency: strings.ToUpper(strings.TrimSpace(raw.Currency))}
	}
	if raw.PostedAt.IsZero() {
		j.PostedAt = fetched
	}

	j.Lineage = []job.LineageEntry{{
		Source:     j.Source,
		SourceName: j.SourceName,
		SourceID:   j.SourceID,
		URL:        j.URL,
		SeenAt:     fetched,
		TrustScore: j.TrustScore,
	}}

	if c.opts.OnlyUS && loc.Country != "US" && !isRemote(loc) {
		j.OutOfScope = true
	}

	return j, nil
}

// TrustScore derives the 0-100 source confidence rating: a fixed baseline
// per source kind, adjusted by probe history within ±maxTrustAdjust.
func TrustScore(src job.Source, adjust float64) int {
	base := TrustAggregator
	switch src {
	case job.SourceInternal:
		base = TrustInternal
	case job.SourceCompany:
		base = TrustCompany
	}

	if adjust > 1 {
		adjust = 1
	}
	if adjust < -1 {
		adjust = -1
	}
	score := base + int(adjust*maxTrustAdjust)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func parseWorkType(raw, location string) job.WorkType {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "remote":
		return job.WorkRemote
	case "hybrid":
		return job.WorkHybrid
	case "onsite", "on-site", "office":
		return job.WorkOnsite
	}
	if strings.Contains(strings.ToLower(location), "remote") {
		return job.WorkRemote
	}
	return job.WorkUnknown
}

func isRemote(loc job.Location) bool {
	return loc.City == "" && loc.Country == "" && strings.Contains(strings.ToLower(loc.Raw), "remote")
}
