package scraping

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/rolemodelconnect/rolemodel-pipeline/internal/storage"
	"github.com/rolemodelconnect/rolemodel-pipeline/pkg/logging"
)

// PipelineConfig configures a collection batch.
type PipelineConfig struct {
	Robots      *RobotsConfig      `json:"robots"`
	Fetcher     *FetcherConfig     `json:"fetcher"`
	RateLimiter *RateLimiterConfig `json:"rate_limiter"`
	Extractor   *ExtractorConfig   `json:"extractor"`
	RawDataDir  string             `json:"raw_data_dir"`
}

// DefaultPipelineConfig returns default batch configuration.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Robots:      DefaultRobotsConfig(),
		Fetcher:     DefaultFetcherConfig(),
		RateLimiter: DefaultRateLimiterConfig(),
		Extractor:   DefaultExtractorConfig(),
		RawDataDir:  storage.DefaultRawDataDir,
	}
}

// Pipeline drives Validate, Robots, RateLimit, Fetch, Extract for each seed
// URL in order and persists successful extractions to the raw store. It is
// the only component with cross-cutting knowledge; every stage it calls is a
// single-input single-output function.
//
// Execution is strictly sequential over the URL list. That is a politeness
// constraint, not a performance limitation: no two requests are ever in
// flight at once.
type Pipeline struct {
	robots    *RobotsChecker
	fetcher   *Fetcher
	limiter   *HostLimiter
	extractor *ContentExtractor
	store     *storage.RawStore
	config    *PipelineConfig
}

// NewPipeline wires up the batch pipeline. Creating the raw data directory
// is the one fatal precondition: with nowhere to persist output, the batch
// cannot do useful work.
func NewPipeline(config *PipelineConfig) (*Pipeline, error) {
	if config == nil {
		config = DefaultPipelineConfig()
	}

	store, err := storage.NewRawStore(config.RawDataDir)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		robots:    NewRobotsChecker(config.Robots),
		fetcher:   NewFetcher(config.Fetcher),
		limiter:   NewHostLimiter(config.RateLimiter),
		extractor: NewContentExtractor(config.Extractor),
		store:     store,
		config:    config,
	}, nil
}

// Run processes every seed URL in order and returns per-URL outcomes in the
// same order. A single URL's failure never aborts the batch; each failure is
// recorded and the run continues with the next URL. The one exception is an
// unwritable output directory, which is configuration-class and stops the run.
func (p *Pipeline) Run(ctx context.Context, req *SeedRequest) (*BatchResult, error) {
	if req.SubjectName == "" {
		return nil, errors.New("seed request has no subject name")
	}

	batch := &BatchResult{
		RunID:       uuid.NewString(),
		SubjectName: req.SubjectName,
		Results:     make([]FetchResult, 0, len(req.URLs)),
		StartedAt:   time.Now(),
	}

	logger := logging.GetPhaseLogger("collection", "batch").With().
		Str("run_id", batch.RunID).
		Str("subject", req.SubjectName).
		Logger()

	logger.Info().Int("urls", len(req.URLs)).Msg("Starting collection batch")

	for i, seedURL := range req.URLs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		result, err := p.processURL(ctx, req.SubjectName, i+1, seedURL)
		if err != nil {
			// Unwritable output is a configuration-class failure, not a
			// per-URL outcome: no later URL could be persisted either.
			logger.Error().Err(err).Str("url", seedURL).Msg("Aborting collection batch")
			return batch, err
		}
		result.ProcessedAt = time.Now()
		batch.Results = append(batch.Results, result)

		if result.Status == StatusSuccess {
			batch.Succeeded++
			logger.Info().
				Str("url", seedURL).
				Str("file", result.OutputFile).
				Msg("Seed URL collected")
		} else {
			batch.Failed++
			logger.Warn().
				Str("url", seedURL).
				Str("status", string(result.Status)).
				Str("error", result.Error).
				Msg("Seed URL skipped")
		}
	}

	batch.CompletedAt = time.Now()
	logger.Info().
		Int("succeeded", batch.Succeeded).
		Int("failed", batch.Failed).
		Dur("duration", batch.CompletedAt.Sub(batch.StartedAt)).
		Msg("Collection batch completed")

	return batch, nil
}

// processURL runs the full stage sequence for one seed URL and converts
// every stage failure into a recorded outcome. The returned error is
// non-nil only for batch-fatal conditions (unwritable output).
func (p *Pipeline) processURL(ctx context.Context, subject string, index int, seedURL string) (FetchResult, error) {
	result := FetchResult{URL: seedURL, Index: index}

	// Validate.
	if !ValidateSeedURL(seedURL) {
		result.Status = StatusInvalidURL
		result.Error = fmt.Sprintf("not a fetchable http(s) URL: %q", seedURL)
		return result, nil
	}
	parsed, _ := url.Parse(seedURL)

	// Robots policy.
	decision, err := p.robots.Check(ctx, seedURL)
	if err != nil {
		result.Status = StatusInvalidURL
		result.Error = err.Error()
		return result, nil
	}
	if !decision.Allowed {
		result.Status = StatusRobotsDisallowed
		result.Error = "disallowed by robots policy"
		return result, nil
	}

	// Rate limit, then fetch. No content GET is ever issued for a URL that
	// failed validation or robots checking above. The completion mark feeds
	// the politeness gap before the next fetch to this host.
	p.limiter.Wait(parsed.Host, decision.CrawlDelay)

	page, err := p.fetcher.Fetch(ctx, seedURL)
	p.limiter.Record(parsed.Host)
	if err != nil {
		return classifyFetchFailure(result, err), nil
	}
	result.StatusCode = page.StatusCode
	result.Attempts = page.Attempts
	result.FetchDuration = page.Duration
	result.RawHTML = page.Body

	// Extract.
	text, err := p.extractor.Extract(page.Body)
	if err != nil {
		result.Status = StatusParseError
		result.Error = err.Error()
		return result, nil
	}
	result.ExtractedText = text

	// Persist.
	name, err := p.store.Write(&storage.RawDocument{
		Subject:     subject,
		SourceURL:   seedURL,
		SourceIndex: index,
		Text:        text,
		RetrievedAt: time.Now(),
	})
	if err != nil {
		return result, fmt.Errorf("persist extracted text for %s: %w", seedURL, err)
	}

	result.OutputFile = name
	result.Status = StatusSuccess
	return result, nil
}

// classifyFetchFailure maps a fetch error onto the outcome taxonomy.
func classifyFetchFailure(result FetchResult, err error) FetchResult {
	var statusErr *HTTPStatusError
	switch {
	case errors.As(err, &statusErr):
		result.Status = StatusHTTPError
		result.StatusCode = statusErr.Code
	case IsTimeout(err):
		result.Status = StatusTimeout
	default:
		result.Status = StatusHTTPError
	}
	result.Error = err.Error()
	return result
}

// Store exposes the raw store backing this pipeline, for callers that list
// or re-read collected files.
func (p *Pipeline) Store() *storage.RawStore {
	return p.store
}
