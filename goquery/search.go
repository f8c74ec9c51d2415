// Package goquery implements web search by scraping the DuckDuckGo HTML
// endpoint with github.com/PuerkitoBio/goquery.
package goquery

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/research"
)

// DefaultBaseURL is the DuckDuckGo HTML-only endpoint.
const DefaultBaseURL = "https://html.duckduckgo.com"

// Ensure Searcher implements research.Searcher at compile time.
var _ research.Searcher = (*Searcher)(nil)

// Searcher queries DuckDuckGo through a research.Fetcher. It is free, so
// no cost events are recorded.
type Searcher struct {
	Fetcher research.Fetcher

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
}

// NewSearcher creates a Searcher using fetcher.
func NewSearcher(fetcher research.Fetcher) *Searcher {
	return &Searcher{Fetcher: fetcher}
}

// Search implements research.Searcher.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]research.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, research.Errorf(research.EINVALID, "search query required")
	}

	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	res, err := s.Fetcher.Fetch(ctx, base+"/html/?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	candidates, err := ParseResults(res.Body)
	if err != nil {
		return nil, err
	}
	if maxResults > 0 && len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	return candidates, nil
}

// ParseResults extracts organic results from a DuckDuckGo HTML results
// page. Ads are skipped and duplicate URLs keep their first position.
// Scores fall linearly with rank from 1.
func ParseResults(page []byte) ([]research.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, research.Errorf(research.EINVALID, "failed to parse results page: %v", err)
	}

	type hit struct{ url, title, snippet string }
	var hits []hit
	seen := make(map[string]bool)

	doc.Find(".result").Each(func(_ int, sel *goquery.Selection) {
		if sel.HasClass("result--ad") {
			return
		}
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		target := resolveRedirect(href)
		if target == "" || seen[target] {
			return
		}
		seen[target] = true
		hits = append(hits, hit{
			url:     target,
			title:   link.Text(),
			snippet: sel.Find(".result__snippet").First().Text(),
		})
	})

	candidates := make([]research.Candidate, 0, len(hits))
	for i, h := range hits {
		score := 1 - float64(i)/float64(len(hits))
		candidates = append(candidates, research.NewCandidate(h.url, h.title, h.snippet, score))
	}
	return candidates, nil
}

// resolveRedirect unwraps DuckDuckGo's "/l/?uddg=" redirect links and
// returns an absolute http(s) URL, or "" when the link is unusable.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		if u, err = url.Parse(target); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return u.String()
}
