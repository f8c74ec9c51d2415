// Package tavily implements research.Searcher on the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/research"
	"github.com/shopspring/decimal"
)

// Defaults.
const (
	DefaultBaseURL    = "https://api.tavily.com"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxResults = 10
)

// Search depths.
const (
	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

// Per-query prices by search depth, in USD.
var (
	BasicQueryPrice    = decimal.RequireFromString("0.005")
	AdvancedQueryPrice = decimal.RequireFromString("0.01")
)

// Ensure Searcher implements research.Searcher at compile time.
var _ research.Searcher = (*Searcher)(nil)

// Searcher queries Tavily. Each successful query is recorded as a search
// cost event when Costs is set.
type Searcher struct {
	apiKey  string
	depth   string
	baseURL string
	client  *http.Client
	costs   research.CostRecorder
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithDepth sets the search depth, DepthBasic or DepthAdvanced.
func WithDepth(depth string) Option {
	return func(s *Searcher) {
		s.depth = depth
	}
}

// WithBaseURL overrides the API origin.
func WithBaseURL(u string) Option {
	return func(s *Searcher) {
		s.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Searcher) {
		s.client = c
	}
}

// WithCostRecorder records a cost event for every query.
func WithCostRecorder(r research.CostRecorder) Option {
	return func(s *Searcher) {
		s.costs = r
	}
}

// NewSearcher creates a Searcher. The depth defaults to DepthAdvanced.
func NewSearcher(apiKey string, opts ...Option) (*Searcher, error) {
	s := &Searcher{
		apiKey:  strings.TrimSpace(apiKey),
		depth:   DepthAdvanced,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.apiKey == "" {
		return nil, research.Errorf(research.EINVALID, "Tavily API key required")
	}
	if s.depth != DepthBasic && s.depth != DepthAdvanced {
		return nil, research.Errorf(research.EINVALID, "unknown search depth %q", s.depth)
	}
	return s, nil
}

// Price returns the per-query price at the configured depth.
func (s *Searcher) Price() research.Price {
	p := research.Price{Provider: "tavily", Model: s.depth, Unit: "query", PerUnit: AdvancedQueryPrice}
	if s.depth == DepthBasic {
		p.PerUnit = BasicQueryPrice
	}
	return p
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search implements research.Searcher.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]research.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, research.Errorf(research.EINVALID, "search query required")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	payload, err := json.Marshal(searchRequest{
		APIKey:      s.apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: s.depth,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, research.Errorf(research.EINVALID, "create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, research.Errorf(research.ETRANSIENT, "Tavily request timed out")
		}
		return nil, research.Errorf(research.ETRANSIENT, "Tavily request failed: %v", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, research.Errorf(research.EINVALID, "decode Tavily response: %v", err)
	}

	if s.costs != nil {
		if err := s.costs.Record(research.NewCostEvent(s.Price(), research.OperationSearch, 1)); err != nil {
			return nil, err
		}
	}

	candidates := make([]research.Candidate, 0, len(body.Results))
	for _, r := range body.Results {
		if r.URL == "" {
			continue
		}
		candidates = append(candidates, research.NewCandidate(r.URL, r.Title, r.Content, r.Score))
		if len(candidates) == maxResults {
			break
		}
	}
	return candidates, nil
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return research.Errorf(research.EINVALID, "Tavily rejected the API key (HTTP %d)", code)
	case code == http.StatusTooManyRequests || code >= 500:
		return research.Errorf(research.ETRANSIENT, "Tavily returned HTTP %d", code)
	default:
		return research.Errorf(research.EINVALID, "Tavily returned HTTP %d", code)
	}
}
