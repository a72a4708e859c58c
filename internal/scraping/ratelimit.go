package scraping

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RateLimiterConfig configures fetch pacing.
type RateLimiterConfig struct {
	// RequestDelay is the minimum gap enforced between successive fetches
	// to the same host.
	RequestDelay time.Duration `json:"request_delay"`
	// Global widens the delay to cover all hosts in the batch instead of
	// tracking each host separately.
	Global bool `json:"global"`
}

// DefaultRateLimiterConfig returns default rate limiting configuration.
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		RequestDelay: 2500 * time.Millisecond,
		Global:       false,
	}
}

// globalKey is the single bucket used when Global pacing is enabled.
const globalKey = "*"

// HostLimiter enforces a minimum delay between successive fetches to the
// same host. The pipeline is strictly sequential, so the limiter is a
// politeness sequencing guarantee rather than a concurrency primitive; state
// is an explicit value owned by the pipeline, not package-global.
type HostLimiter struct {
	config   *RateLimiterConfig
	lastDone map[string]time.Time
	mu       sync.Mutex

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// NewHostLimiter creates a rate limiter.
func NewHostLimiter(config *RateLimiterConfig) *HostLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}

	return &HostLimiter{
		config:   config,
		lastDone: make(map[string]time.Time),
		sleep:    time.Sleep,
	}
}

// Wait blocks until at least the configured delay (or crawlDelay from the
// host's robots policy, whichever is larger) has elapsed since the previous
// fetch to host completed. Callers mark completion with Record.
func (hl *HostLimiter) Wait(host string, crawlDelay time.Duration) {
	delay := hl.config.RequestDelay
	if crawlDelay > delay {
		delay = crawlDelay
	}

	hl.mu.Lock()
	last, seen := hl.lastDone[hl.key(host)]
	hl.mu.Unlock()

	if seen {
		if elapsed := time.Since(last); elapsed < delay {
			wait := delay - elapsed
			log.Debug().
				Str("host", host).
				Dur("wait", wait).
				Dur("delay", delay).
				Msg("Rate limiter pausing before fetch")
			hl.sleep(wait)
		}
	}
}

// Record marks the completion of a fetch to host. The politeness gap runs
// from this point, not from the start of the request, so a slow fetch never
// shortens the gap to the next one.
func (hl *HostLimiter) Record(host string) {
	hl.mu.Lock()
	hl.lastDone[hl.key(host)] = time.Now()
	hl.mu.Unlock()
}

// LastCompleted returns the recorded completion time of the most recent
// fetch to host, or the zero time if the host has not been fetched this run.
func (hl *HostLimiter) LastCompleted(host string) time.Time {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return hl.lastDone[hl.key(host)]
}

func (hl *HostLimiter) key(host string) string {
	if hl.config.Global {
		return globalKey
	}
	return strings.ToLower(host)
}
