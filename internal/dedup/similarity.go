package dedup

import (
	"strings"
	"unicode"
)

// FuzzyThreshold is the minimum token-set similarity for two postings to be
// treated as the same opening across sources. Below it we prefer a missed
// duplicate over a false merge.
const FuzzyThreshold = 0.85

func normalizeTokens(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

// tokenSetSimilarity is the Jaccard ratio of the two token sets.
func tokenSetSimilarity(a, b string) float64 {
	ta := normalizeTokens(a)
	tb := normalizeTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		setB[t] = struct{}{}
	}

	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
