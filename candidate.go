package research

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// SourceKind identifies how a source is acquired.
type SourceKind string

// SourceKind constants.
const (
	SourceArticle SourceKind = "article"
	SourcePDF     SourceKind = "pdf"
	SourceVideo   SourceKind = "video"

	// SourceText is used for local plain text and markdown files.
	SourceText SourceKind = "text"
)

// Candidate is a search result that may be approved for acquisition.
type Candidate struct {
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	Snippet        string     `json:"snippet"`
	RelevanceScore float64    `json:"relevanceScore"`
	Kind           SourceKind `json:"kind"`
	Paywalled      bool       `json:"paywalled"`

	// Summary is a short description shown before approval. Empty when no
	// summary was generated.
	Summary string `json:"summary,omitempty"`
}

// Searcher finds candidate sources for a query.
type Searcher interface {
	// Search returns at most maxResults candidates ordered by the provider's
	// own ranking. Relevance scores are in [0, 1].
	Search(ctx context.Context, query string, maxResults int) ([]Candidate, error)
}

// Approver decides which filtered candidates are acquired. It may block on
// a human; implementations must honor context cancellation.
type Approver interface {
	// Approve returns the approved subset of candidates. An empty result
	// means every candidate was rejected.
	Approve(ctx context.Context, candidates []Candidate) ([]Candidate, error)
}

// Summarizer describes a candidate in a few sentences so that it can be
// judged before approval.
type Summarizer interface {
	Summarize(ctx context.Context, query string, c Candidate) (string, error)
}

var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com"}

// DetectSourceKind guesses the source kind from a URL.
func DetectSourceKind(rawURL string) SourceKind {
	lower := strings.ToLower(rawURL)
	u, err := url.Parse(lower)
	if err != nil {
		return SourceArticle
	}
	if strings.HasSuffix(u.Path, ".pdf") || strings.Contains(u.Path, "/pdf/") {
		return SourcePDF
	}
	for _, host := range videoHosts {
		if hostMatches(u.Hostname(), host) {
			return SourceVideo
		}
	}
	return SourceArticle
}

var paywallDomains = []string{
	"wsj.com",
	"ft.com",
	"bloomberg.com",
	"economist.com",
	"nytimes.com",
	"washingtonpost.com",
	"newyorker.com",
	"theatlantic.com",
}

var paywallMarkers = []string{"subscribe", "membership", "premium"}

// IsPaywallDomain reports whether a URL likely sits behind a paywall, based
// on a list of known subscription publishers and path markers.
func IsPaywallDomain(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	u, err := url.Parse(lower)
	if err != nil {
		return false
	}
	for _, domain := range paywallDomains {
		if hostMatches(u.Hostname(), domain) {
			return true
		}
	}
	for _, marker := range paywallMarkers {
		if strings.Contains(u.Path, marker) || strings.Contains(u.Hostname(), marker) {
			return true
		}
	}
	return false
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// VideoID derives the YouTube video identifier from a watch, short link,
// embed or shorts URL.
func VideoID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())

	var id string
	switch {
	case hostMatches(host, "youtu.be"):
		id = strings.Trim(u.Path, "/")
	case hostMatches(host, "youtube.com"), hostMatches(host, "youtube-nocookie.com"):
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/v/"):
			id = strings.TrimPrefix(u.Path, "/v/")
		}
	}
	id, _, _ = strings.Cut(id, "/")

	if !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// NewCandidate builds a candidate, deriving its kind and paywall flag from
// the URL. The score is clamped to [0, 1].
func NewCandidate(rawURL, title, snippet string, score float64) Candidate {
	return Candidate{
		URL:            rawURL,
		Title:          strings.TrimSpace(title),
		Snippet:        strings.TrimSpace(snippet),
		RelevanceScore: min(max(score, 0), 1),
		Kind:           DetectSourceKind(rawURL),
		Paywalled:      IsPaywallDomain(rawURL),
	}
}
