package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jobradar/internal/domain/job"

	"github.com/gocolly/colly/v2"
)

// CareerPageTarget describes how to scrape one company's career page.
type CareerPageTarget struct {
	SourceName       string
	BaseURL          string
	ListURL          string
	LinkSelector     string
	TitleSelector    string
	LocationSelector string
	BodySelector     string
	// Headless switches listing discovery to a real browser for boards
	// that render their links with JavaScript.
	Headless bool
}

// CareerPageAdapter scrapes first-party company career pages with CSS
// selector targets.
type CareerPageAdapter struct {
	target CareerPageTarget
}

func NewCareerPageAdapter(target CareerPageTarget) *CareerPageAdapter {
	if strings.TrimSpace(target.LinkSelector) == "" {
		target.LinkSelector = "a"
	}
	if strings.TrimSpace(target.TitleSelector) == "" {
		target.TitleSelector = "h1"
	}
	if strings.TrimSpace(target.BodySelector) == "" {
		target.BodySelector = "body"
	}
	if strings.TrimSpace(target.BaseURL) == "" {
		target.BaseURL = target.ListURL
	}
	return &CareerPageAdapter{target: target}
}

func (a *CareerPageAdapter) Name() string       { return a.target.SourceName }
func (a *CareerPageAdapter) Source() job.Source { return job.SourceCompany }

func (a *CareerPageAdapter) Fetch(ctx context.Context) ([]job.RawPosting, error) {
	if a == nil || strings.TrimSpace(a.target.ListURL) == "" {
		return nil, fmt.Errorf("careerpage: not configured")
	}

	var links []string
	var err error
	if a.target.Headless {
		links, err = fetchListingLinksHeadless(ctx, a.target)
	} else {
		links, err = a.fetchListingLinks(ctx)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]job.RawPosting, 0, len(links))
	for _, link := range links {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		d, err := a.fetchDetail(ctx, link)
		if err != nil {
			// One broken detail page never aborts the listing walk.
			continue
		}
		out = append(out, job.RawPosting{
			Source:      job.SourceCompany,
			SourceName:  a.target.SourceName,
			SourceID:    "",
			Title:       d.title,
			Company:     a.target.SourceName,
			Location:    d.location,
			Description: d.description,
			URL:         link,
			FetchedAt:   now,
		})
	}
	return out, nil
}

func (a *CareerPageAdapter) fetchListingLinks(ctx context.Context) ([]string, error) {
	c := a.newCollector()

	links := make([]string, 0, 32)
	seen := map[string]struct{}{}

	c.OnHTML(a.target.LinkSelector, func(e *colly.HTMLElement) {
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" {
			return
		}
		abs := e.Request.AbsoluteURL(href)
		if abs == "" {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	if err := c.Request("GET", a.target.ListURL, nil, colly.NewContext(), nil); err != nil {
		return nil, err
	}
	c.Wait()
	return links, ctx.Err()
}

type careerDetail struct {
	title       string
	location    string
	description string
}

func (a *CareerPageAdapter) fetchDetail(ctx context.Context, link string) (careerDetail, error) {
	c := a.newCollector()

	var d careerDetail
	c.OnHTML(a.target.TitleSelector, func(e *colly.HTMLElement) {
		if d.title == "" {
			d.title = strings.TrimSpace(e.Text)
		}
	})
	if sel := strings.TrimSpace(a.target.LocationSelector); sel != "" {
		c.OnHTML(sel, func(e *colly.HTMLElement) {
			if d.location == "" {
				d.location = strings.TrimSpace(e.Text)
			}
		})
	}
	c.OnHTML(a.target.BodySelector, func(e *colly.HTMLElement) {
		if d.description == "" {
			d.description = strings.TrimSpace(e.Text)
		}
	})

	if err := c.Request("GET", link, nil, colly.NewContext(), nil); err != nil {
		return careerDetail{}, err
	}
	c.Wait()

	if d.title == "" {
		return careerDetail{}, fmt.Errorf("no title at %s", link)
	}
	return d, ctx.Err()
}

func (a *CareerPageAdapter) newCollector() *colly.Collector {
	host := hostFromURL(a.target.ListURL)
	var c *colly.Collector
	if host == "" {
		c = colly.NewCollector()
	} else {
		c = colly.NewCollector(colly.AllowedDomains(host))
	}
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 2, Delay: 450 * time.Millisecond, RandomDelay: 850 * time.Millisecond})
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})
	return c
}

func hostFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return u.Host
}
