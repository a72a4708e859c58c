package scraping

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

// maxRobotsBody caps how much of a robots.txt response is read.
const maxRobotsBody = 512 * 1024

// RobotsConfig configures robots.txt policy checking.
type RobotsConfig struct {
	UserAgent    string        `json:"user_agent"`
	FetchTimeout time.Duration `json:"fetch_timeout"`
	CacheTTL     time.Duration `json:"cache_ttl"`
}

// DefaultRobotsConfig returns default robots checking configuration.
func DefaultRobotsConfig() *RobotsConfig {
	return &RobotsConfig{
		UserAgent:    DefaultUserAgent,
		FetchTimeout: 10 * time.Second,
		CacheTTL:     24 * time.Hour,
	}
}

// RobotsDecision is the result of a robots policy check for one URL.
type RobotsDecision struct {
	Allowed bool `json:"allowed"`
	// Fallback marks a permissive default applied because robots.txt was
	// unreachable or malformed, as opposed to an explicit site policy.
	Fallback   bool          `json:"fallback"`
	CrawlDelay time.Duration `json:"crawl_delay,omitempty"`
}

// RobotsChecker fetches and caches robots.txt policies per host and decides
// whether a given URL may be fetched under the configured user agent.
//
// Policy endpoint is always scheme://host/robots.txt. An unreachable,
// malformed, or non-2xx robots resource degrades to allow-all; that fallback
// is logged distinctly from an explicit disallow so the two are never
// confused in batch logs.
type RobotsChecker struct {
	client *http.Client
	config *RobotsConfig

	cache   map[string]*robotsEntry
	cacheMu sync.RWMutex
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
	allowAll  bool
}

// NewRobotsChecker creates a robots policy checker.
func NewRobotsChecker(config *RobotsConfig) *RobotsChecker {
	if config == nil {
		config = DefaultRobotsConfig()
	}

	return &RobotsChecker{
		client: &http.Client{
			Timeout: config.FetchTimeout,
		},
		config: config,
		cache:  make(map[string]*robotsEntry),
	}
}

// Check decides whether targetURL may be fetched. The robots.txt for the
// URL's host is fetched at most once per cache TTL; within a batch run every
// URL on the same host reuses the cached policy.
func (rc *RobotsChecker) Check(ctx context.Context, targetURL string) (*RobotsDecision, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("robots check: invalid URL: %w", err)
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return nil, fmt.Errorf("robots check: URL %q has no host", targetURL)
	}

	entry := rc.entryForHost(ctx, host, parsed.Scheme)

	if entry.allowAll {
		return &RobotsDecision{Allowed: true, Fallback: true}, nil
	}

	decision := &RobotsDecision{
		Allowed: entry.data.TestAgent(pathForRobots(parsed), rc.config.UserAgent),
	}
	if group := entry.data.FindGroup(rc.config.UserAgent); group != nil {
		decision.CrawlDelay = group.CrawlDelay
	}

	if !decision.Allowed {
		log.Info().
			Str("url", targetURL).
			Str("host", host).
			Str("user_agent", rc.config.UserAgent).
			Msg("Robots policy disallows URL")
	}

	return decision, nil
}

// entryForHost returns a fresh cached entry or fetches and caches one.
func (rc *RobotsChecker) entryForHost(ctx context.Context, host, scheme string) *robotsEntry {
	rc.cacheMu.RLock()
	entry, ok := rc.cache[host]
	rc.cacheMu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < rc.config.CacheTTL {
		return entry
	}

	entry = rc.fetchPolicy(ctx, host, scheme)

	rc.cacheMu.Lock()
	rc.cache[host] = entry
	rc.cacheMu.Unlock()

	return entry
}

// fetchPolicy retrieves and parses robots.txt for a host. All failure modes
// produce an allow-all entry; the permissive fallback is logged so it can be
// told apart from a site that explicitly allows the path.
func (rc *RobotsChecker) fetchPolicy(ctx context.Context, host, scheme string) *robotsEntry {
	if scheme == "" {
		scheme = "https"
	}
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return rc.allowAllEntry(robotsURL, err)
	}
	req.Header.Set("User-Agent", rc.config.UserAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return rc.allowAllEntry(robotsURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rc.allowAllEntry(robotsURL, fmt.Errorf("robots.txt returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
	if err != nil {
		return rc.allowAllEntry(robotsURL, err)
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return rc.allowAllEntry(robotsURL, err)
	}

	log.Debug().
		Str("robots_url", robotsURL).
		Int("bytes", len(body)).
		Msg("Fetched and parsed robots.txt")

	return &robotsEntry{
		data:      data,
		fetchedAt: time.Now(),
	}
}

func (rc *RobotsChecker) allowAllEntry(robotsURL string, cause error) *robotsEntry {
	log.Warn().
		Err(cause).
		Str("robots_url", robotsURL).
		Bool("fallback", true).
		Msg("Robots policy unavailable, defaulting to allowed")

	return &robotsEntry{
		fetchedAt: time.Now(),
		allowAll:  true,
	}
}

// CachedHosts returns the hosts with a cached robots policy in this run.
func (rc *RobotsChecker) CachedHosts() []string {
	rc.cacheMu.RLock()
	defer rc.cacheMu.RUnlock()

	hosts := make([]string, 0, len(rc.cache))
	for host := range rc.cache {
		hosts = append(hosts, host)
	}
	return hosts
}

// pathForRobots yields the path (plus query) tested against robots rules.
func pathForRobots(u *url.URL) string {
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}
