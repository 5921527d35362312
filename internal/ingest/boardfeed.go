package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"jobradar/internal/domain/job"

	"golang.org/x/time/rate"
)

// BoardFeedAdapter pulls a paginated JSON listing API of a generic job
// aggregator.
type BoardFeedAdapter struct {
	name    string
	baseURL string
	pages   int
	client  *http.Client
	limiter *rate.Limiter
}

type BoardFeedConfig struct {
	Name       string
	BaseURL    string
	Pages      int
	RatePerSec float64
}

func NewBoardFeedAdapter(cfg BoardFeedConfig) *BoardFeedAdapter {
	pages := cfg.Pages
	if pages <= 0 {
		pages = 2
	}
	return &BoardFeedAdapter{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		pages:   pages,
		client:  newHTTPClient(),
		limiter: newSourceLimiter(cfg.RatePerSec),
	}
}

func (a *BoardFeedAdapter) Name() string       { return a.name }
func (a *BoardFeedAdapter) Source() job.Source { return job.SourceAggregator }

type boardListing struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company_name"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Seniority   string   `json:"seniority"`
	WorkType    string   `json:"work_type"`
	SalaryMin   float64  `json:"salary_min"`
	SalaryMax   float64  `json:"salary_max"`
	Currency    string   `json:"salary_currency"`
	URL         string   `json:"url"`
	PublishedAt *string  `json:"published_at"`
	Tags        []string `json:"tags"`
}

type boardPage struct {
	Results []boardListing `json:"results"`
	Count   int            `json:"count"`
}

// Fetch walks the listing pages until an empty page or the configured page
// cap. A failed page is skipped, not fatal: partial results still count.
func (a *BoardFeedAdapter) Fetch(ctx context.Context) ([]job.RawPosting, error) {
	if a == nil || a.baseURL == "" {
		return nil, fmt.Errorf("boardfeed: not configured")
	}

	out := make([]job.RawPosting, 0, a.pages*30)
	var lastErr error
	now := time.Now().UTC()

	for page := 1; page <= a.pages; page++ {
		url := fmt.Sprintf("%s/api/listings?per_page=30&page=%d", a.baseURL, page)
		body, err := httpGetWithRetry(ctx, a.client, a.limiter, url, 3)
		if err != nil {
			lastErr = fmt.Errorf("page %d: %w", page, err)
			continue
		}

		var pg boardPage
		if err := json.Unmarshal(body, &pg); err != nil {
			lastErr = fmt.Errorf("page %d: %w", page, err)
			continue
		}
		if len(pg.Results) == 0 {
			break
		}

		for _, it := range pg.Results {
			out = append(out, job.RawPosting{
				Source:      job.SourceAggregator,
				SourceName:  a.name,
				SourceID:    strings.TrimSpace(it.ID),
				Title:       it.Title,
				Company:     it.Company,
				Location:    it.Location,
				Description: it.Description,
				Seniority:   it.Seniority,
				WorkType:    it.WorkType,
				SalaryMin:   it.SalaryMin,
				SalaryMax:   it.SalaryMax,
				Currency:    it.Currency,
				URL:         it.URL,
				PostedAt:    parseRFC3339OrZero(it.PublishedAt),
				FetchedAt:   now,
			})
		}
		if len(pg.Results) < 30 {
			break
		}
	}

	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func parseRFC3339OrZero(s *string) time.Time {
	if s == nil {
		return time.Time{}
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return time.Time{}
	}
	tm, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return tm.UTC()
}
