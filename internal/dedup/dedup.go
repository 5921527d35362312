package dedup

import (
	"log"
	"strings"

	"jobradar/internal/domain/job"
)

// Deduplicator collapses raw postings that describe the same real-world
// opening into one canonical record.
type Deduplicator struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Deduplicator {
	return &Deduplicator{logger: logger}
}

// Merge folds an incoming canonicalized posting into the existing corpus
// slice. Returns the canonical record and whether it is a new opening.
//
// Match order:
//  1. primary key (source, sourceName, sourceID): update in place;
//  2. fuzzy cross-source: normalized title + canonical company + location
//     within FuzzyThreshold, absorbed as an extra lineage entry.
//
// A posting matching neither is ingested standalone; ambiguous near-misses
// are logged for offline review, not guessed.
func (d *Deduplicator) Merge(existing []job.Job, incoming job.Job) (job.Job, bool) {
	for i := range existing {
		if sameRawRecord(existing[i], incoming) {
			return d.update(existing[i], incoming, false), false
		}
	}

	if canFuzzyMatch(incoming) {
		bestIdx := -1
		bestSim := 0.0
		for i := range existing {
			sim := fuzzySimilarity(existing[i], incoming)
			if sim > bestSim {
				bestSim = sim
				bestIdx = i
			}
		}
		if bestIdx >= 0 && bestSim >= FuzzyThreshold {
			return d.update(existing[bestIdx], incoming, true), false
		}
		if bestIdx >= 0 && bestSim >= FuzzyThreshold-0.15 && d.logger != nil {
			d.logger.Printf("[Dedup] Ambiguous near-match kept separate sim=%.2f existing=%q incoming=%q",
				bestSim, existing[bestIdx].Title, incoming.Title)
		}
	}

	return incoming, true
}

func sameRawRecord(a, b job.Job) bool {
	if b.SourceID == "" {
		return false
	}
	return a.Source == b.Source && a.SourceName == b.SourceName && a.SourceID == b.SourceID
}

// canFuzzyMatch requires enough fields for a safe cross-source comparison.
func canFuzzyMatch(j job.Job) bool {
	return strings.TrimSpace(j.Title) != "" && strings.TrimSpace(j.Company) != "" && !j.Location.IsZero()
}

func fuzzySimilarity(existing, incoming job.Job) float64 {
	if !canFuzzyMatch(existing) {
		return 0
	}
	if existing.CompanyID != incoming.CompanyID {
		return 0
	}
	if !sameNormalizedLocation(existing.Location, incoming.Location) {
		return 0
	}
	return tokenSetSimilarity(existing.Title, incoming.Title)
}

func sameNormalizedLocation(a, b job.Location) bool {
	return strings.EqualFold(a.City, b.City) && strings.EqualFold(a.Country, b.Country)
}

// update applies the tie-break rule for mutable fields: the source with the
// higher current trust score wins; on a tie, the most recently verified
// source wins. The rule is explicit so merge outcome never depends on
// processing order of equal inputs.
func (d *Deduplicator) update(canonical, incoming job.Job, crossSource bool) job.Job {
	incomingWins := incoming.TrustScore > canonical.TrustScore ||
		(incoming.TrustScore == canonical.TrustScore && incoming.LastVerifiedAt.After(canonical.LastVerifiedAt))

	if incomingWins {
		canonical.Description = pickNonEmpty(incoming.Description, canonical.Description)
		if !incoming.Salary.IsZero() {
			canonical.Salary = incoming.Salary
		}
		canonical.Seniority = pickNonEmpty(incoming.Seniority, canonical.Seniority)
		if incoming.WorkType != job.WorkUnknown {
			canonical.WorkType = incoming.WorkType
		}
	} else {
		canonical.Description = pickNonEmpty(canonical.Description, incoming.Description)
		if canonical.Salary.IsZero() {
			canonical.Salary = incoming.Salary
		}
		canonical.Seniority = pickNonEmpty(canonical.Seniority, incoming.Seniority)
		if canonical.WorkType == job.WorkUnknown {
			canonical.WorkType = incoming.WorkType
		}
	}

	canonical.SkillTags = unionTags(canonical.SkillTags, incoming.SkillTags)

	// Highest trust from any contributing source sticks to the canonical
	// record.
	if incoming.TrustScore > canonical.TrustScore {
		canonical.TrustScore = incoming.TrustScore
	}

	if !crossSource && materialURLChange(canonical.URL, incoming.URL) {
		// Re-listed under a new application target: liveness history no
		// longer describes it.
		canonical.URL = incoming.URL
		canonical.Liveness = job.LivenessUnknown
		canonical.EverProbedOK = false
		canonical.ProbeFailures = 0
	} else if !crossSource && incoming.URL != "" {
		canonical.URL = incoming.URL
	}

	if incoming.PostedAt.After(canonical.PostedAt) {
		canonical.PostedAt = incoming.PostedAt
	}

	canonical.Lineage = appendLineage(canonical.Lineage, incoming.Lineage)
	return canonical
}

func materialURLChange(oldURL, newURL string) bool {
	oldURL = strings.TrimSuffix(strings.TrimSpace(oldURL), "/")
	newURL = strings.TrimSuffix(strings.TrimSpace(newURL), "/")
	return oldURL != "" && newURL != "" && !strings.EqualFold(oldURL, newURL)
}

func appendLineage(existing, incoming []job.LineageEntry) []job.LineageEntry {
	for _, in := range incoming {
		found := false
		for i := range existing {
			if existing[i].Source == in.Source && existing[i].SourceName == in.SourceName && existing[i].SourceID == in.SourceID {
				existing[i].SeenAt = in.SeenAt
				if in.TrustScore > 0 {
					existing[i].TrustScore = in.TrustScore
				}
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, in)
		}
	}
	return existing
}

func pickNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func unionTags(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a))
	for _, t := range a {
		seen[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			a = append(a, t)
		}
	}
	return a
}
