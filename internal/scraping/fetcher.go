package scraping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultUserAgent identifies the pipeline to scraped sites. The contact URL
// lets site operators reach the project if the bot misbehaves.
const DefaultUserAgent = "RoleModelConnect-Pipeline/1.0 (+https://rolemodelconnect.org/bot)"

// FetcherConfig configures the HTTP fetcher.
type FetcherConfig struct {
	UserAgent      string        `json:"user_agent"`
	Timeout        time.Duration `json:"timeout"`
	MaxRetries     int           `json:"max_retries"`
	RetryBaseDelay time.Duration `json:"retry_base_delay"`
	MaxContentSize int64         `json:"max_content_size"`
}

// DefaultFetcherConfig returns default fetcher configuration.
func DefaultFetcherConfig() *FetcherConfig {
	return &FetcherConfig{
		UserAgent:      DefaultUserAgent,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 1 * time.Second,
		MaxContentSize: 10 * 1024 * 1024, // 10MB
	}
}

// Page is a successfully fetched response body.
type Page struct {
	URL         string        `json:"url"`
	Body        []byte        `json:"-"`
	StatusCode  int           `json:"status_code"`
	ContentType string        `json:"content_type"`
	Attempts    int           `json:"attempts"`
	Duration    time.Duration `json:"duration"`
}

// HTTPStatusError reports a non-success HTTP status from the target server.
type HTTPStatusError struct {
	URL  string
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.Code, e.URL)
}

// Transient reports whether the status is worth retrying: 429 and 5xx are
// treated as transient, every other 4xx is a terminal client error.
func (e *HTTPStatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || (e.Code >= 500 && e.Code < 600)
}

// IsTimeout reports whether err represents a request timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Fetcher issues GET requests with a declared user agent and timeout,
// retrying transient failures with exponential backoff.
type Fetcher struct {
	client *http.Client
	config *FetcherConfig
}

// NewFetcher creates an HTTP fetcher.
func NewFetcher(config *FetcherConfig) *Fetcher {
	if config == nil {
		config = DefaultFetcherConfig()
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// Fetch retrieves the page at targetURL. Timeouts, 429 and 5xx responses are
// retried up to MaxRetries with RetryBaseDelay*2^attempt backoff; any other
// 4xx fails immediately. The returned error is the last failure when retries
// are exhausted.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	start := time.Now()

	var lastErr error
	attempts := f.config.MaxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := f.config.RetryBaseDelay * time.Duration(1<<(attempt-1))
			log.Debug().
				Str("url", targetURL).
				Int("attempt", attempt+1).
				Dur("backoff", delay).
				Msg("Retrying fetch after transient failure")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		page, err := f.doFetch(ctx, targetURL)
		if err == nil {
			page.Attempts = attempt + 1
			page.Duration = time.Since(start)

			log.Debug().
				Str("url", targetURL).
				Int("status_code", page.StatusCode).
				Int("bytes", len(page.Body)).
				Int("attempts", page.Attempts).
				Dur("duration", page.Duration).
				Msg("Fetch completed")

			return page, nil
		}

		lastErr = err
		if !isTransient(err) {
			return nil, err
		}
	}

	log.Warn().
		Err(lastErr).
		Str("url", targetURL).
		Int("max_retries", f.config.MaxRetries).
		Msg("Fetch retries exhausted")

	return nil, lastErr
}

// doFetch performs a single GET attempt.
func (f *Fetcher) doFetch(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", targetURL, err)
	}

	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused, then classify.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
		return nil, &HTTPStatusError{URL: targetURL, Code: resp.StatusCode}
	}

	limited := &io.LimitedReader{R: resp.Body, N: f.config.MaxContentSize}
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", targetURL, err)
	}
	if limited.N <= 0 {
		return nil, fmt.Errorf("content of %s exceeds %d byte limit", targetURL, f.config.MaxContentSize)
	}

	return &Page{
		URL:         targetURL,
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// isTransient reports whether a fetch failure should be retried.
func isTransient(err error) bool {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	return IsTimeout(err)
}
