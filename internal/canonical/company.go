package canonical

import (
	"strings"
	"unicode"
)

// CompanyAliases maps known name variants to one canonical company name.
// Keys and values are already normalized (lowercase, no legal suffix).
var CompanyAliases = map[string]string{
	"alphabet":           "google",
	"google llc":         "google",
	"meta platforms":     "meta",
	"facebook":           "meta",
	"aws":                "amazon",
	"amazon web services": "amazon",
	"ibm corporation":    "ibm",
	"international business machines": "ibm",
}

var legalSuffixes = []string{
	"inc", "incorporated", "llc", "ltd", "limited", "corp", "corporation",
	"co", "gmbh", "bv", "plc", "sa", "pte", "pt", "pty",
}

// NormalizeCompany folds a raw company name into its canonical form:
// case-fold, strip punctuation and trailing legal suffixes, then resolve
// through the alias table. Unresolved names pass through as their own
// canonical entry.
func NormalizeCompany(raw string) (name string, id string) {
	n := foldCompanyName(raw)
	if n == "" {
		return "", ""
	}
	if alias, ok := CompanyAliases[n]; ok {
		n = alias
	}
	return n, companySlug(n)
}

func foldCompanyName(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	b := strings.Builder{}
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	fields := strings.Fields(b.String())

	for len(fields) > 1 {
		last := fields[len(fields)-1]
		if !isLegalSuffix(last) {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func isLegalSuffix(s string) bool {
	for _, suf := range legalSuffixes {
		if s == suf {
			return true
		}
	}
	return false
}

func companySlug(name string) string {
	return strings.ReplaceAll(name, " ", "-")
}
