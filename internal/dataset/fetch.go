package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/observability"
)

var (
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
	ErrNotFound        = errors.New("dataset not found")
)

// Fetcher downloads the dataset CSV over HTTP with retry and exponential backoff.
type Fetcher struct {
	client         *http.Client
	timeout        time.Duration
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

// NewFetcher builds a Fetcher from the dataset options, applying defaults for unset values.
func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:         opts.HTTPClient,
		timeout:        opts.Timeout,
		retryAttempts:  opts.RetryAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
		retryMaxDelay:  opts.RetryMaxDelay,
	}
	if f.timeout <= 0 {
		f.timeout = 10 * time.Second
	}
	if f.retryAttempts <= 0 {
		f.retryAttempts = 3
	}
	if f.retryBaseDelay <= 0 {
		f.retryBaseDelay = 200 * time.Millisecond
	}
	if f.retryMaxDelay < f.retryBaseDelay {
		f.retryMaxDelay = f.retryBaseDelay
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	return f
}

// Fetch downloads and parses the CSV at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (models.Table, error) {
	var lastErr error
	for attempt := 0; attempt < f.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.DatasetFetchRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.backoff(attempt)):
			}
		}

		table, err := f.fetchOnce(ctx, url)
		if err == nil {
			return table, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (models.Table, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		observability.DatasetFetchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := f.client.Do(req)
	if err != nil {
		observability.DatasetFetchTotal.WithLabelValues("error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	observability.DatasetFetchTotal.WithLabelValues(fmt.Sprintf("%dxx", resp.StatusCode/100)).Inc()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamFailure, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	table, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return table, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	// Only per-attempt deadlines are retried; the parent context is checked in Fetch.
	return errors.Is(err, context.DeadlineExceeded)
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	delay := float64(f.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(f.retryMaxDelay) {
		delay = float64(f.retryMaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}
