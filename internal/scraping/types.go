package scraping

import (
	"time"
)

// FetchStatus classifies the terminal outcome of processing a single seed URL.
type FetchStatus string

const (
	StatusSuccess          FetchStatus = "success"
	StatusInvalidURL       FetchStatus = "invalid_url"
	StatusRobotsDisallowed FetchStatus = "robots_disallowed"
	StatusHTTPError        FetchStatus = "http_error"
	StatusTimeout          FetchStatus = "timeout"
	StatusParseError       FetchStatus = "parse_error"
)

// SeedRequest is the input to a collection batch: a subject and the ordered
// list of manually curated seed URLs to scrape for that subject.
type SeedRequest struct {
	SubjectName string   `json:"subject_name"`
	URLs        []string `json:"urls"`
}

// FetchResult records the outcome for one seed URL. RawHTML and ExtractedText
// are only populated on success; StatusCode is populated whenever the content
// GET received a response.
type FetchResult struct {
	URL           string        `json:"url"`
	Index         int           `json:"index"`
	Status        FetchStatus   `json:"status"`
	StatusCode    int           `json:"status_code,omitempty"`
	Error         string        `json:"error,omitempty"`
	RawHTML       []byte        `json:"-"`
	ExtractedText string        `json:"-"`
	OutputFile    string        `json:"output_file,omitempty"`
	Attempts      int           `json:"attempts,omitempty"`
	FetchDuration time.Duration `json:"fetch_duration,omitempty"`
	ProcessedAt   time.Time     `json:"processed_at"`
}

// BatchResult aggregates per-URL outcomes for one run, in seed order.
type BatchResult struct {
	RunID       string        `json:"run_id"`
	SubjectName string        `json:"subject_name"`
	Results     []FetchResult `json:"results"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
}
