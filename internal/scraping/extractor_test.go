package scraping

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// longParagraph builds paragraph text safely above the default threshold.
func longParagraph(topic string) string {
	return fmt.Sprintf("This is a sufficiently long paragraph about %s that easily clears "+
		"the minimum extraction length threshold used by the content extractor, including "+
		"several complete sentences of readable prose for the curation phase to work with.", topic)
}

func TestExtractorPrefersArticleElement(t *testing.T) {
	page := fmt.Sprintf(`<html><body>
		<nav>Site navigation links</nav>
		<article><p>%s</p></article>
		<div class="content"><p>%s</p></div>
	</body></html>`, longParagraph("the article body"), longParagraph("a sidebar container"))

	extractor := NewContentExtractor(nil)
	text, err := extractor.Extract([]byte(page))
	require.NoError(t, err)

	assert.Contains(t, text, "the article body")
	assert.NotContains(t, text, "a sidebar container", "article strategy wins before container fallback")
}

func TestExtractorFallsBackToMain(t *testing.T) {
	page := fmt.Sprintf(`<html><body>
		<main><p>%s</p></main>
	</body></html>`, longParagraph("the main element"))

	extractor := NewContentExtractor(nil)
	text, err := extractor.Extract([]byte(page))
	require.NoError(t, err)
	assert.Contains(t, text, "the main element")
}

func TestExtractorFallsBackToContentContainer(t *testing.T) {
	page := fmt.Sprintf(`<html><body>
		<div id="mw-content-text"><p>%s</p></div>
	</body></html>`, longParagraph("a wiki content container"))

	extractor := NewContentExtractor(nil)
	text, err := extractor.Extract([]byte(page))
	require.NoError(t, err)
	assert.Contains(t, text, "a wiki content container")
}

func TestExtractorFallsBackToParagraphs(t *testing.T) {
	page := fmt.Sprintf(`<html><body>
		<div class="unusual-layout"><p>%s</p><p>%s</p></div>
	</body></html>`, longParagraph("the first paragraph"), longParagraph("the second paragraph"))

	extractor := NewContentExtractor(nil)
	text, err := extractor.Extract([]byte(page))
	require.NoError(t, err)

	assert.Contains(t, text, "the first paragraph")
	assert.Contains(t, text, "the second paragraph")
}

func TestExtractorDocumentWalkLastResort(t *testing.T) {
	// No article, main, known container, or <p> tags at all.
	page := fmt.Sprintf(`<html><body>
		<div><span>%s</span></div>
	</body></html>`, longParagraph("bare span markup"))

	extractor := NewContentExtractor(nil)
	text, err := extractor.Extract([]byte(page))
	require.NoError(t, err)
	assert.Contains(t, text, "bare span markup")
}

func TestExtractorStripsBoilerplateElements(t *testing.T) {
	page := fmt.Sprintf(`<html><head><script>var tracking = true;</script></head><body>
		<header>SITE HEADER</header>
		<nav>MENU ITEMS</nav>
		<article><p>%s</p></article>
		<aside>RELATED LINKS</aside>
		<footer>COPYRIGHT NOTICE</footer>
	</body></html>`, longParagraph("the real story"))

	extractor := NewContentExtractor(nil)
	text, err := extractor.Extract([]byte(page))
	require.NoError(t, err)

	assert.Contains(t, text, "the real story")
	assert.NotContains(t, text, "SITE HEADER")
	assert.NotContains(t, text, "MENU ITEMS")
	assert.NotContains(t, text, "RELATED LINKS")
	assert.NotContains(t, text, "COPYRIGHT NOTICE")
	assert.NotContains(t, text, "tracking")
}

func TestExtractorRejectsThinContent(t *testing.T) {
	page := `<html><body><article><p>Too short.</p></article></body></html>`

	extractor := NewContentExtractor(nil)
	_, err := extractor.Extract([]byte(page))
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestExtractorMinLengthConfigurable(t *testing.T) {
	page := `<html><body><article><p>Short but acceptable here.</p></article></body></html>`

	extractor := NewContentExtractor(&ExtractorConfig{MinTextLength: 10})
	text, err := extractor.Extract([]byte(page))
	require.NoError(t, err)
	assert.Contains(t, text, "Short but acceptable here.")
}

func TestExtractorDeterministic(t *testing.T) {
	page := fmt.Sprintf(`<html><body><article><p>%s</p><p>%s</p></article></body></html>`,
		longParagraph("determinism"), longParagraph("repeatability"))

	extractor := NewContentExtractor(nil)
	first, err := extractor.Extract([]byte(page))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := extractor.Extract([]byte(page))
		require.NoError(t, err)
		assert.Equal(t, first, again, "identical input bytes must yield identical text")
	}
}

func TestExtractorNormalizesWhitespace(t *testing.T) {
	body := longParagraph("whitespace handling")
	page := fmt.Sprintf("<html><body><article><p>   %s   </p>\n\n\n\n<p>%s</p></article></body></html>",
		body, longParagraph("a second block"))

	extractor := NewContentExtractor(nil)
	text, err := extractor.Extract([]byte(page))
	require.NoError(t, err)

	assert.NotContains(t, text, "  ", "space runs are collapsed")
	assert.NotContains(t, text, "\n\n\n", "blank line runs are limited")
	assert.False(t, strings.HasPrefix(text, " "))
	assert.False(t, strings.HasSuffix(text, "\n"))
}
