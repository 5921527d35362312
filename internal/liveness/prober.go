package liveness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Verdict is what one successful probe concluded about a posting.
type Verdict string

const (
	VerdictActive Verdict = "active"
	VerdictStale  Verdict = "stale"
)

// Outcome carries the verdict plus the heuristic that produced it, for
// audit logging.
type Outcome struct {
	Verdict Verdict
	Reason  string
}

const (
	probeTimeout      = 20 * time.Second
	maxProbeBodyBytes = 1 << 20
	maxProbeAttempts  = 3
	probeUserAgent    = "JobRadarBot/1.0"
)

// closedPhrases mark a page that still serves 200 for a filled opening.
// Matched case-insensitively against the response body.
var closedPhrases = []string{
	"no longer accepting applications",
	"this position has been filled",
	"position is no longer available",
	"this job has expired",
	"this job is no longer available",
	"this posting has closed",
	"this vacancy is closed",
	"applications are closed",
}

// Prober fetches a posting's URL and decides whether the opening still
// exists. Heuristics apply in priority order: hard 404/410, redirect to a
// generic landing page, closed phrasing in the body. A clean response with
// no signal means active.
type Prober struct {
	client *http.Client
}

func NewProber() *Prober {
	return &Prober{
		client: &http.Client{
			Timeout: probeTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Probe checks one URL. A returned error means the probe itself failed
// (network, timeout, 5xx) and says nothing about the posting: the caller
// must leave liveness status unchanged.
func (p *Prober) Probe(ctx context.Context, postingURL string) (Outcome, error) {
	if strings.TrimSpace(postingURL) == "" {
		return Outcome{}, fmt.Errorf("probe: empty url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, postingURL, nil)
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("User-Agent", probeUserAgent)
	req.Header.Set("Accept", "text/html, application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Outcome{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return Outcome{Verdict: VerdictStale, Reason: fmt.Sprintf("status %d", resp.StatusCode)}, nil
	case resp.StatusCode >= 500:
		return Outcome{}, fmt.Errorf("probe: upstream status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		// Other client errors (403, 429) are access problems, not a
		// signal about the posting.
		return Outcome{}, fmt.Errorf("probe: status %d", resp.StatusCode)
	}

	if resp.Request != nil && resp.Request.URL != nil && genericRedirect(postingURL, resp.Request.URL) {
		return Outcome{Verdict: VerdictStale, Reason: "redirected to " + resp.Request.URL.Path}, nil
	}

	body, err := io.ReadAll(&io.LimitedReader{R: resp.Body, N: maxProbeBodyBytes})
	if err != nil {
		return Outcome{}, err
	}
	if phrase := closedPhrase(string(body)); phrase != "" {
		return Outcome{Verdict: VerdictStale, Reason: "closed phrasing: " + phrase}, nil
	}

	return Outcome{Verdict: VerdictActive, Reason: "ok"}, nil
}

// ProbeWithRetry retries transient probe failures with exponential backoff.
// A stale/active verdict returns immediately.
func (p *Prober) ProbeWithRetry(ctx context.Context, postingURL string) (Outcome, error) {
	var lastErr error
	for attempt := 0; attempt < maxProbeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Outcome{}, ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * 500 * time.Millisecond):
			}
		}
		out, err := p.Probe(ctx, postingURL)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
	}
	return Outcome{}, lastErr
}

// genericRedirect reports whether the final URL after redirects is a
// generic landing page rather than the posting itself. Boards commonly
// redirect expired postings to the careers root or the site root.
func genericRedirect(original string, final *url.URL) bool {
	orig, err := url.Parse(original)
	if err != nil {
		return false
	}
	if strings.EqualFold(orig.Host, final.Host) && orig.Path == final.Path {
		return false
	}

	path := strings.Trim(final.Path, "/")
	if path == "" {
		return true
	}
	segments := strings.Split(path, "/")
	if len(segments) > 1 {
		return false
	}
	switch strings.ToLower(segments[0]) {
	case "careers", "jobs", "join", "join-us", "openings", "vacancies":
		return true
	}
	return false
}

func closedPhrase(body string) string {
	lower := strings.ToLower(body)
	for _, phrase := range closedPhrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}
