// Package trafilatura extracts the main content of article pages with
// go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/research"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements research.Extractor at compile time.
var _ research.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
// Comment sections are dropped.
type Extractor struct {
	opts trafilatura.Options
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		opts: trafilatura.Options{
			EnableFallback:  true,
			ExcludeComments: true,
		},
	}
}

// Extract processes raw HTML and returns the main content. A page with no
// detectable main content is an EINVALID error.
func (e *Extractor) Extract(rawHTML string) (*research.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, research.Errorf(research.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return nil, research.Errorf(research.EINVALID, "trafilatura: %v", err)
	}
	if result.ContentNode == nil {
		return nil, research.Errorf(research.EINVALID, "no main content found")
	}

	contentHTML, err := renderNode(result.ContentNode)
	if err != nil {
		return nil, err
	}

	title := result.Metadata.Title
	if title == "" {
		title = result.Metadata.Sitename
	}

	return &research.ExtractResult{
		Title:       title,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
