package research

import (
	"context"
	"mime"
	"strings"
)

// Resource is the body of a fetched URL.
type Resource struct {
	// URL is the final URL after redirects.
	URL         string
	ContentType string
	Body        []byte
}

// MediaType returns the lowercased media type of the resource without
// parameters, e.g. "text/html".
func (r *Resource) MediaType() string {
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		mt, _, _ = strings.Cut(r.ContentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// Fetcher retrieves resources from URLs.
// Implementations classify failures: timeouts, 5xx and 429 responses are
// ETRANSIENT; other 4xx responses are ENOTFOUND or EINVALID.
type Fetcher interface {
	// Fetch retrieves the URL. The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*Resource, error)

	// Close releases resources held by the fetcher.
	Close() error
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
