package scraping

import (
	"net/url"
)

// ValidateSeedURL reports whether a candidate string is a well-formed,
// fetchable URL: an absolute http(s) URL with a non-empty host. It performs
// no network access and never panics on malformed input.
func ValidateSeedURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	return parsed.Host != ""
}
