package canonical

import (
	"testing"
	"time"

	"jobradar/internal/domain/job"
)

func TestNormalizeCompany_StripsLegalSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme, Inc.", "acme"},
		{"Globex Corporation", "globex"},
		{"Initech LLC", "initech"},
		{"Hooli", "hooli"},
		{"  Umbrella  Co  ", "umbrella"},
	}
	for _, c := range cases {
		got, _ := NormalizeCompany(c.in)
		if got != c.want {
			t.Errorf("NormalizeCompany(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeCompany_AliasLookup(t *testing.T) {
	got, id := NormalizeCompany("Facebook")
	if got != "meta" {
		t.Errorf("NormalizeCompany(Facebook) = %q, want meta", got)
	}
	if id != "meta" {
		t.Errorf("company id = %q, want meta", id)
	}
}

func TestNormalizeCompany_UnresolvedPassesThrough(t *testing.T) {
	got, _ := NormalizeCompany("Some Tiny Startup")
	if got != "some tiny startup" {
		t.Errorf("unresolved name should pass through, got %q", got)
	}
}

func TestNormalizeLocation_CityStateCountry(t *testing.T) {
	loc := NormalizeLocation("Austin, TX, USA")
	if loc.City != "Austin" {
		t.Errorf("city = %q, want Austin", loc.City)
	}
	if loc.Region != "Texas" {
		t.Errorf("region = %q, want Texas", loc.Region)
	}
	if loc.Country != "US" {
		t.Errorf("country = %q, want US", loc.Country)
	}
}

func TestNormalizeLocation_StateImpliesUS(t *testing.T) {
	loc := NormalizeLocation("Seattle, WA")
	if loc.Country != "US" {
		t.Errorf("US state should imply country US, got %q", loc.Country)
	}
}

func TestNormalizeLocation_Remote(t *testing.T) {
	loc := NormalizeLocation("Remote (worldwide)")
	if loc.City != "" || loc.Country != "" {
		t.Errorf("remote location should not resolve city/country, got %+v", loc)
	}
	if loc.Raw == "" {
		t.Error("raw text should be preserved")
	}
}

func TestInferSkills_ImpliedExpansion(t *testing.T) {
	tags := InferSkills("Senior Django Developer", "Build APIs with Django and PostgreSQL")
	want := map[string]bool{"django": true, "python": true, "postgresql": true}
	for _, tag := range tags {
		delete(want, tag)
	}
	for missing := range want {
		t.Errorf("InferSkills missing expected tag %q (got %v)", missing, tags)
	}
}

func TestInferSkills_NoMatchIsNil(t *testing.T) {
	if tags := InferSkills("Warehouse Associate", "Lift boxes"); len(tags) != 0 {
		t.Errorf("expected no tags, got %v", tags)
	}
}

func TestTrustScore_Baselines(t *testing.T) {
	cases := []struct {
		src  job.Source
		want int
	}{
		{job.SourceInternal, 100},
		{job.SourceCompany, 85},
		{job.SourceAggregator, 60},
	}
	for _, c := range cases {
		if got := TrustScore(c.src, 0); got != c.want {
			t.Errorf("TrustScore(%s, 0) = %d, want %d", c.src, got, c.want)
		}
	}
}

func TestTrustScore_AdjustmentBoundedAndClamped(t *testing.T) {
	if got := TrustScore(job.SourceAggregator, 1); got != 75 {
		t.Errorf("max positive adjust = %d, want 75", got)
	}
	if got := TrustScore(job.SourceAggregator, -5); got != 45 {
		t.Errorf("adjust should clamp to -1, got %d", got)
	}
	if got := TrustScore(job.SourceInternal, 1); got != 100 {
		t.Errorf("score must stay within 0-100, got %d", got)
	}
}

func TestCanonicalize_Basic(t *testing.T) {
	c := New(Options{})
	raw := job.RawPosting{
		Source:      job.SourceCompany,
		SourceName:  "Acme Careers",
		SourceID:    "req-42",
		Title:       "Senior Go Engineer",
		Company:     "Acme Inc",
		Location:    "Denver, CO",
		Description: "Go, PostgreSQL, Kubernetes",
		URL:         "https://careers.acme.example/req-42",
		FetchedAt:   time.Now().UTC(),
	}

	j, err := c.Canonicalize(raw, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if j.Company != "acme" {
		t.Errorf("company = %q, want acme", j.Company)
	}
	if j.Liveness != job.LivenessUnknown {
		t.Errorf("initial liveness = %s, want unknown", j.Liveness)
	}
	if j.TrustScore != 85 {
		t.Errorf("trust = %d, want 85", j.TrustScore)
	}
	if len(j.Lineage) != 1 {
		t.Fatalf("expected 1 lineage entry, got %d", len(j.Lineage))
	}
	if j.PostedAt.IsZero() {
		t.Error("postedAt should fall back to fetchedAt")
	}
	found := false
	for _, tag := range j.SkillTags {
		if tag == "go" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected skill tag go, got %v", j.SkillTags)
	}
}

func TestCanonicalize_MalformedSkipped(t *testing.T) {
	c := New(Options{})
	_, err := c.Canonicalize(job.RawPosting{Source: job.SourceAggregator, Description: "no title"}, 0)
	if err == nil {
		t.Fatal("expected malformed posting error")
	}
}

func TestCanonicalize_OnlyUSFlagsOutOfScope(t *testing.T) {
	c := New(Options{OnlyUS: true})

	j, err := c.Canonicalize(job.RawPosting{
		Source:   job.SourceAggregator,
		SourceID: "x1",
		Title:    "Engineer",
		Location: "Berlin, Germany",
		URL:      "https://example.com/x1",
	}, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !j.OutOfScope {
		t.Error("non-US posting should be flagged out of scope")
	}

	j2, err := c.Canonicalize(job.RawPosting{
		Source:   job.SourceAggregator,
		SourceID: "x2",
		Title:    "Engineer",
		Location: "Unparseable Nowhere",
		URL:      "https://example.com/x2",
	}, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !j2.OutOfScope {
		t.Error("posting with no resolvable country should be flagged out of scope")
	}
}
