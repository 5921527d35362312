package vectorizer

import (
	"math"
	"strings"

	"jobradar/internal/canonical"
	"jobradar/internal/domain/candidate"
	"jobradar/internal/domain/job"
)

// Vector is a sparse token-weight encoding over the skill taxonomy. Cosine
// comparison between a candidate and a job vector is monotonic with skill
// overlap: identical sets score near 1, disjoint sets score 0.
type Vector map[string]float64

// Vectorize is a pure function of profile content. Callers cache the result
// keyed by candidate.Profile.ContentHash and recompute only when it changes.
func Vectorize(p candidate.Profile) Vector {
	v := Vector{}

	for _, s := range p.Skills {
		tag := canonical.NormalizeSkill(s.Name)
		if tag == "" {
			continue
		}
		// Proficiency and tenure weight a skill up without ever zeroing
		// it: a listed skill always contributes.
		w := 1.0
		if s.ProficiencyLevel > 0 {
			w += 0.15 * float64(clampInt(s.ProficiencyLevel, 1, 5))
		}
		if s.YearsExperience > 0 {
			w += 0.05 * math.Min(float64(s.YearsExperience), 10)
		}
		if w > v[tag] {
			v[tag] = w
		}
	}

	for _, e := range p.Experience {
		for _, tag := range canonical.InferSkills(e.Title, e.Summary) {
			if _, ok := v[tag]; !ok {
				v[tag] = 0.5
			}
		}
	}

	return v
}

// JobVector encodes a canonical job's skill tags with uniform weight.
func JobVector(j job.Job) Vector {
	v := Vector{}
	for _, tag := range j.SkillTags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		v[tag] = 1
	}
	return v
}

// Cosine returns the cosine similarity of two vectors in [0, 1].
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	dot := 0.0
	for tag, wa := range a {
		if wb, ok := b[tag]; ok {
			dot += wa * wb
		}
	}
	if dot == 0 {
		return 0
	}

	na := 0.0
	for _, w := range a {
		na += w * w
	}
	nb := 0.0
	for _, w := range b {
		nb += w * w
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim > 1 {
		sim = 1
	}
	if sim < 0 {
		sim = 0
	}
	return sim
}

// MatchedTags lists the tags present in both vectors, for the feed
// explanation. Order follows the job's tag order for determinism.
func MatchedTags(cand Vector, j job.Job) []string {
	out := make([]string, 0, len(j.SkillTags))
	for _, tag := range j.SkillTags {
		if _, ok := cand[strings.ToLower(strings.TrimSpace(tag))]; ok {
			out = append(out, tag)
		}
	}
	return out
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
