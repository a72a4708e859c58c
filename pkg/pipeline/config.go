// Package pipeline holds the top-level configuration shared by the
// collection and curation commands. Constants are fixed at startup: there is
// no dynamic config surface, only defaults plus optional .env overrides.
package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rolemodelconnect/rolemodel-pipeline/internal/curation"
	"github.com/rolemodelconnect/rolemodel-pipeline/internal/scraping"
	"github.com/rolemodelconnect/rolemodel-pipeline/pkg/logging"
)

// Config holds complete pipeline configuration for both phases.
type Config struct {
	Logging  *logging.LogConfig       `json:"logging"`
	Scraping *scraping.PipelineConfig `json:"scraping"`

	// Curation output location.
	EntriesDir string `json:"entries_dir"`
}

// DefaultConfig returns a complete default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging:    logging.DefaultLogConfig(),
		Scraping:   scraping.DefaultPipelineConfig(),
		EntriesDir: curation.DefaultOutputDir,
	}
}

// Load builds the configuration from defaults plus environment overrides.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	config := DefaultConfig()

	if v := os.Getenv("RMC_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("RMC_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
	if v := os.Getenv("RMC_RAW_DATA_DIR"); v != "" {
		config.Scraping.RawDataDir = v
	}
	if v := os.Getenv("RMC_ENTRIES_DIR"); v != "" {
		config.EntriesDir = v
	}
	if v := os.Getenv("RMC_USER_AGENT"); v != "" {
		config.Scraping.Fetcher.UserAgent = v
		config.Scraping.Robots.UserAgent = v
	}

	if v := os.Getenv("RMC_REQUEST_DELAY"); v != "" {
		delay, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RMC_REQUEST_DELAY %q: %w", v, err)
		}
		config.Scraping.RateLimiter.RequestDelay = delay
	}
	if v := os.Getenv("RMC_FETCH_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RMC_FETCH_TIMEOUT %q: %w", v, err)
		}
		config.Scraping.Fetcher.Timeout = timeout
	}
	if v := os.Getenv("RMC_MAX_RETRIES"); v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil || retries < 0 {
			return nil, fmt.Errorf("invalid RMC_MAX_RETRIES %q", v)
		}
		config.Scraping.Fetcher.MaxRetries = retries
	}
	if v := os.Getenv("RMC_GLOBAL_RATE_LIMIT"); v != "" {
		global, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RMC_GLOBAL_RATE_LIMIT %q", v)
		}
		config.Scraping.RateLimiter.Global = global
	}

	return config, nil
}
