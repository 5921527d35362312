package candidate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is the structured candidate profile owned by the profile
// subsystem. It is consumed read-only; resume parsing happens upstream.
type Profile struct {
	CandidateID uuid.UUID
	Skills      []Skill
	Experience  []ExperienceEntry
	Education   []EducationEntry

	PreferredLocation string
	SalaryExpectation float64
	Seniority         string
}

type Skill struct {
	Name             string
	ProficiencyLevel int
	YearsExperience  int
}

type ExperienceEntry struct {
	Title     string
	Company   string
	Summary   string
	StartedAt time.Time
	EndedAt   time.Time
}

type EducationEntry struct {
	Institution string
	Degree      string
	Field       string
}

// Actions carries the job-action subsystem's per-candidate state: jobs to
// exclude from the feed and the lightweight interaction signal consumed by
// the personalization sub-score.
type Actions struct {
	ExcludedJobIDs []uuid.UUID
	Interactions   []Interaction
}

type Interaction struct {
	JobID     uuid.UUID
	Company   string
	SkillTags []string
	Kind      string // "saved", "applied", "viewed"
	At        time.Time
}

type profileHashInput struct {
	Skills     []Skill           `json:"skills"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`
	Location   string            `json:"location"`
	Salary     float64           `json:"salary"`
	Seniority  string            `json:"seniority"`
}

// ContentHash is a stable digest of the profile's structured fields. It keys
// the cached candidate vector and the feed cache; any profile edit or newly
// parsed resume changes it and forces recomputation downstream.
func (p Profile) ContentHash() string {
	skills := make([]Skill, len(p.Skills))
	copy(skills, p.Skills)
	for i := range skills {
		skills[i].Name = strings.ToLower(strings.TrimSpace(skills[i].Name))
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })

	in := profileHashInput{
		Skills:     skills,
		Experience: p.Experience,
		Education:  p.Education,
		Location:   strings.ToLower(strings.TrimSpace(p.PreferredLocation)),
		Salary:     p.SalaryExpectation,
		Seniority:  strings.ToLower(strings.TrimSpace(p.Seniority)),
	}
	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HasSkills reports whether the profile carries any usable skill at all.
// An empty skill set must route to discovery ranking, never to a skill
// filter that would match nothing.
func (p Profile) HasSkills() bool {
	for _, s := range p.Skills {
		if strings.TrimSpace(s.Name) != "" {
			return true
		}
	}
	return false
}
