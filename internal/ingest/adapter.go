package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobradar/internal/domain/job"

	"golang.org/x/time/rate"
)

// Adapter talks to exactly one origin's transport and emits raw postings.
// It must not canonicalize; that happens downstream. One adapter failing
// never blocks the others.
type Adapter interface {
	Name() string
	Source() job.Source
	Fetch(ctx context.Context) ([]job.RawPosting, error)
}

const (
	defaultHTTPTimeout = 25 * time.Second
	maxResponseBytes   = 5 << 20
	userAgent          = "JobRadarBot/1.0"
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// newSourceLimiter builds the adapter-local rate limiter. Upstream sources
// block aggressive crawlers, so the default is one request per second with
// a small burst.
func newSourceLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), 2)
}

func httpGetWithRetry(ctx context.Context, client *http.Client, limiter *rate.Limiter, url string, attempts int) ([]byte, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json, text/html")

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, err := func() ([]byte, error) {
				defer resp.Body.Close()
				if resp.StatusCode < 200 || resp.StatusCode >= 300 {
					return nil, fmt.Errorf("status %d", resp.StatusCode)
				}
				return readAllLimit(resp.Body, maxResponseBytes)
			}()
			if err == nil {
				return body, nil
			}
			lastErr = err
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, lastErr
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(300*(i+1)) * time.Millisecond):
		}
	}
	return nil, lastErr
}

func readAllLimit(r io.Reader, max int64) ([]byte, error) {
	lr := &io.LimitedReader{R: r, N: max}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if lr.N <= 0 {
		return nil, fmt.Errorf("response too large")
	}
	return b, nil
}
