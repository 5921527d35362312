package canonical

import (
	"sort"
	"strings"
)

// Taxonomy is the internal skill vocabulary. Each entry maps the canonical
// tag to the keywords that indicate it in free text.
var Taxonomy = map[string][]string{
	"go":         {"golang", "go developer", "go engineer"},
	"python":     {"python"},
	"java":       {"java "},
	"javascript": {"javascript", "js developer"},
	"typescript": {"typescript"},
	"react":      {"react", "reactjs", "react.js"},
	"node.js":    {"node.js", "nodejs", "node js"},
	"django":     {"django"},
	"rails":      {"ruby on rails", "rails"},
	"ruby":       {"ruby"},
	"postgresql": {"postgresql", "postgres"},
	"mysql":      {"mysql"},
	"redis":      {"redis"},
	"kubernetes": {"kubernetes", "k8s"},
	"docker":     {"docker"},
	"terraform":  {"terraform"},
	"aws":        {"aws", "amazon web services"},
	"gcp":        {"gcp", "google cloud"},
	"sql":        {"sql"},
	"kafka":      {"kafka"},
	"grpc":       {"grpc"},
	"graphql":    {"graphql"},
	"rust":       {"rust "},
	"c++":        {"c++"},
	"machine learning": {"machine learning", "ml engineer"},
	"data engineering": {"data engineer", "etl"},
}

// ImpliedSkills expands a matched tag into the skills it implies.
var ImpliedSkills = map[string][]string{
	"django":  {"python"},
	"rails":   {"ruby"},
	"react":   {"javascript"},
	"node.js": {"javascript"},
	"kubernetes": {"docker"},
	"typescript": {"javascript"},
}

// InferSkills maps free-text title and description onto the taxonomy via
// keyword matching, then applies the implied-skill expansion. Best effort:
// an empty result is fine and never blocks ingestion.
func InferSkills(title, description string) []string {
	text := strings.ToLower(title + " " + description)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	seen := map[string]struct{}{}
	for tag, keywords := range Taxonomy {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				seen[tag] = struct{}{}
				break
			}
		}
	}

	for tag := range seen {
		for _, implied := range ImpliedSkills[tag] {
			seen[implied] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// NormalizeSkill maps one externally supplied skill name to its taxonomy
// tag when recognized, or the trimmed lowercase name otherwise.
func NormalizeSkill(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if _, ok := Taxonomy[s]; ok {
		return s
	}
	for tag, keywords := range Taxonomy {
		for _, kw := range keywords {
			if s == strings.TrimSpace(kw) {
				return tag
			}
		}
	}
	return s
}
