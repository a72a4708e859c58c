package scraping

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// ErrNoContent is returned when every extraction strategy yields text below
// the minimum length threshold. Near-empty pages are reported rather than
// persisted as near-empty files.
var ErrNoContent = errors.New("no extractable content above minimum length")

// ExtractorConfig configures content extraction.
type ExtractorConfig struct {
	// MinTextLength is the shortest extraction accepted as real content.
	MinTextLength int `json:"min_text_length"`
}

// DefaultExtractorConfig returns default extraction configuration.
func DefaultExtractorConfig() *ExtractorConfig {
	return &ExtractorConfig{
		MinTextLength: 200,
	}
}

// Strategy is one pure extraction attempt over a parsed document.
type Strategy struct {
	Name    string
	Extract func(doc *goquery.Document) string
}

// ContentExtractor turns raw HTML bytes into plain text using an ordered
// list of fallback strategies; the first strategy producing non-trivial
// output wins. Extraction is deterministic: identical input bytes always
// yield identical text.
type ContentExtractor struct {
	config     *ExtractorConfig
	strategies []Strategy
}

// NewContentExtractor creates an extractor with the default strategy order:
// article body, main element, common content containers, all paragraphs,
// then a whole-document text walk as the last resort.
func NewContentExtractor(config *ExtractorConfig) *ContentExtractor {
	if config == nil {
		config = DefaultExtractorConfig()
	}

	return &ContentExtractor{
		config: config,
		strategies: []Strategy{
			{Name: "article", Extract: selectorStrategy("article")},
			{Name: "main", Extract: selectorStrategy("main")},
			{Name: "content_container", Extract: selectorStrategy(
				"div#mw-content-text, div#content, div.content, div.post, div.entry, div.article-body")},
			{Name: "paragraphs", Extract: paragraphStrategy},
			{Name: "document_walk", Extract: documentWalkStrategy},
		},
	}
}

// Extract parses raw HTML and applies the fallback strategies in order.
func (ce *ContentExtractor) Extract(rawHTML []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	// Strip elements that never contribute to readable content.
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	for _, strategy := range ce.strategies {
		text := cleanupText(strategy.Extract(doc))
		if len(text) >= ce.config.MinTextLength {
			log.Debug().
				Str("strategy", strategy.Name).
				Int("characters", len(text)).
				Msg("Extraction strategy succeeded")
			return text, nil
		}
	}

	log.Debug().
		Int("min_length", ce.config.MinTextLength).
		Msg("All extraction strategies produced trivial output")

	return "", ErrNoContent
}

// selectorStrategy extracts block-level text from the first element matching
// the selector list.
func selectorStrategy(selector string) func(doc *goquery.Document) string {
	return func(doc *goquery.Document) string {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return ""
		}
		return blockText(sel)
	}
}

// paragraphStrategy joins the text of every paragraph tag in the document.
func paragraphStrategy(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// blockText renders a selection as text with block elements separated by
// blank lines; falls back to the raw selection text when it holds no blocks.
func blockText(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		// Skip nodes whose text is already covered by a matched ancestor,
		// e.g. a <p> inside a matched <blockquote>.
		if s.Parents().Filter("p, blockquote").Length() > 0 {
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	if len(parts) == 0 {
		return sel.Text()
	}
	return strings.Join(parts, "\n\n")
}

// documentWalkStrategy walks the full HTML tree and collects text nodes,
// inserting newlines around block elements. Last-resort strategy for pages
// whose markup defeats the selector-based passes.
func documentWalkStrategy(doc *goquery.Document) string {
	if len(doc.Nodes) == 0 {
		return ""
	}

	var builder strings.Builder
	walkTextNodes(doc.Nodes[0], &builder)
	return builder.String()
}

func walkTextNodes(n *html.Node, builder *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "nav", "header", "footer", "aside", "title":
			return
		}
	}

	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			if n.Parent != nil && isBlockElement(n.Parent.Data) {
				builder.WriteString("\n")
				builder.WriteString(text)
				builder.WriteString("\n")
			} else {
				builder.WriteString(" ")
				builder.WriteString(text)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkTextNodes(c, builder)
	}
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote",
		"article", "section", "main", "pre", "td", "th", "dt", "dd":
		return true
	}
	return false
}

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// cleanupText normalizes whitespace: collapses space runs, trims each line,
// and limits consecutive blank lines.
func cleanupText(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
