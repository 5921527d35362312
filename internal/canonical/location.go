package canonical

import (
	"strings"

	"jobradar/internal/domain/job"
)

var usStates = map[string]string{
	"al": "Alabama", "ak": "Alaska", "az": "Arizona", "ar": "Arkansas",
	"ca": "California", "co": "Colorado", "ct": "Connecticut", "de": "Delaware",
	"fl": "Florida", "ga": "Georgia", "hi": "Hawaii", "id": "Idaho",
	"il": "Illinois", "in": "Indiana", "ia": "Iowa", "ks": "Kansas",
	"ky": "Kentucky", "la": "Louisiana", "me": "Maine", "md": "Maryland",
	"ma": "Massachusetts", "mi": "Michigan", "mn": "Minnesota", "ms": "Mississippi",
	"mo": "Missouri", "mt": "Montana", "ne": "Nebraska", "nv": "Nevada",
	"nh": "New Hampshire", "nj": "New Jersey", "nm": "New Mexico", "ny": "New York",
	"nc": "North Carolina", "nd": "North Dakota", "oh": "Ohio", "ok": "Oklahoma",
	"or": "Oregon", "pa": "Pennsylvania", "ri": "Rhode Island", "sc": "South Carolina",
	"sd": "South Dakota", "tn": "Tennessee", "tx": "Texas", "ut": "Utah",
	"vt": "Vermont", "va": "Virginia", "wa": "Washington", "wv": "West Virginia",
	"wi": "Wisconsin", "wy": "Wyoming", "dc": "District of Columbia",
}

var countryNames = map[string]string{
	"us": "US", "usa": "US", "united states": "US", "united states of america": "US",
	"uk": "GB", "united kingdom": "GB", "england": "GB",
	"canada": "CA", "germany": "DE", "france": "FR", "netherlands": "NL",
	"india": "IN", "singapore": "SG", "australia": "AU", "indonesia": "ID",
	"remote": "",
}

// NormalizeLocation parses a free-text location into city/region/country.
// A recognized US state implies country US. "Remote" yields an empty
// location with the raw text preserved.
func NormalizeLocation(raw string) job.Location {
	loc := job.Location{Raw: strings.TrimSpace(raw)}
	if loc.Raw == "" {
		return loc
	}

	lower := strings.ToLower(loc.Raw)
	if strings.Contains(lower, "remote") {
		return loc
	}

	parts := strings.Split(lower, ",")
	for i := range parts {
		parts[i] = strings.Join(strings.Fields(parts[i]), " ")
	}

	for _, p := range parts {
		if p == "" {
			continue
		}
		if c, ok := countryNames[p]; ok {
			loc.Country = c
			continue
		}
		if st, ok := usStates[p]; ok {
			loc.Region = st
			loc.Country = "US"
			continue
		}
		if loc.City == "" {
			loc.City = titleCase(p)
			continue
		}
		if loc.Region == "" {
			loc.Region = titleCase(p)
		}
	}

	return loc
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if len(f) > 0 {
			fields[i] = strings.ToUpper(f[:1]) + f[1:]
		}
	}
	return strings.Join(fields, " ")
}
