package job

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source identifies the kind of origin a posting came from.
type Source string

const (
	SourceInternal   Source = "internal"
	SourceCompany    Source = "direct-company"
	SourceAggregator Source = "aggregator"
)

var errUnknownSource = errors.New("unknown source")

func ParseSource(s string) (Source, error) {
	switch Source(strings.TrimSpace(strings.ToLower(s))) {
	case SourceInternal:
		return SourceInternal, nil
	case SourceCompany:
		return SourceCompany, nil
	case SourceAggregator:
		return SourceAggregator, nil
	}
	return "", fmt.Errorf("%w: %q", errUnknownSource, s)
}

// LivenessStatus tracks whether the external posting is still open.
type LivenessStatus string

const (
	LivenessUnknown LivenessStatus = "unknown"
	LivenessActive  LivenessStatus = "active"
	LivenessStale   LivenessStatus = "stale"
)

// CanTransition reports whether a probe result may move a job from one
// liveness status to another. Only the prober moves status; unknown is
// never re-entered once any probe has succeeded.
func CanTransition(from, to LivenessStatus) bool {
	switch from {
	case LivenessUnknown:
		return to == LivenessActive || to == LivenessStale
	case LivenessActive:
		return to == LivenessStale
	case LivenessStale:
		return to == LivenessActive
	}
	return false
}

type WorkType string

const (
	WorkRemote  WorkType = "remote"
	WorkHybrid  WorkType = "hybrid"
	WorkOnsite  WorkType = "onsite"
	WorkUnknown WorkType = ""
)

type SalaryRange struct {
	Min      float64
	Max      float64
	Currency string
}

func (s SalaryRange) IsZero() bool {
	return s.Min == 0 && s.Max == 0
}

// LineageEntry records one raw posting that folded into a canonical job.
type LineageEntry struct {
	Source     Source    `json:"source"`
	SourceName string    `json:"source_name"`
	SourceID   string    `json:"source_id"`
	URL        string    `json:"url"`
	SeenAt     time.Time `json:"seen_at"`
	VerifiedAt time.Time `json:"verified_at"`
	TrustScore int       `json:"trust_score"`
}

// Location is the normalized place a job is attached to.
type Location struct {
	City    string
	Region  string
	Country string
	Lat     float64
	Lon     float64
	Raw     string
}

func (l Location) IsZero() bool {
	return l.City == "" && l.Region == "" && l.Country == "" && l.Raw == ""
}

// Job is the canonical posting: exactly one per real-world opening.
// Raw records from multiple sources fold into it via dedup, keeping their
// lineage. Stale jobs are excluded from feeds, never hard-deleted.
type Job struct {
	CanonicalID uuid.UUID
	Source      Source
	SourceName  string
	SourceID    string

	Title       string
	Company     string
	CompanyID   string
	Location    Location
	Description string
	SkillTags   []string
	Seniority   string
	WorkType    WorkType
	Salary      SalaryRange
	URL         string

	TrustScore int
	Liveness   LivenessStatus
	OutOfScope bool

	Lineage []LineageEntry

	FirstSeenAt    time.Time
	LastVerifiedAt time.Time
	PostedAt       time.Time
	NextProbeAt    time.Time
	ProbeFailures  int
	EverProbedOK   bool
}

// RawPosting is the common shape every source adapter emits. Adapters only
// translate transport payloads into it; canonicalization happens downstream.
type RawPosting struct {
	Source      Source
	SourceName  string
	SourceID    string
	Title       string
	Company     string
	Location    string
	Description string
	Seniority   string
	WorkType    string
	SalaryMin   float64
	SalaryMax   float64
	Currency    string
	URL         string
	PostedAt    time.Time
	FetchedAt   time.Time
}

// RawKey is the per-source identity of a raw record.
func (j Job) RawKey() string {
	return string(j.Source) + "/" + j.SourceName + "/" + j.SourceID
}

// FeedEligible reports whether the job may appear in default feeds.
func (j Job) FeedEligible() bool {
	return !j.OutOfScope && j.Liveness != LivenessStale
}
