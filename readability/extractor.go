// Package readability extracts article content with go-readability. It is
// used as a fallback when the primary extractor finds no main content.
package readability

import (
	"strings"

	"github.com/fwojciec/research"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements research.Extractor at compile time.
var _ research.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. The title
// falls back to the site name when the page has none.
func (e *Extractor) Extract(rawHTML string) (*research.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, research.Errorf(research.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, research.Errorf(research.EINVALID, "readability: %v", err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, research.Errorf(research.EINVALID, "no readable content found")
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = strings.TrimSpace(article.SiteName)
	}

	return &research.ExtractResult{
		Title:       title,
		ContentHTML: article.Content,
	}, nil
}
