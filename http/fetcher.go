// Package http provides an HTTP-based implementation of research.Fetcher
// for articles, PDFs and other resources that don't require JavaScript rendering.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/research"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultMaxBodySize caps the bytes read from a response body (50 MiB).
const DefaultMaxBodySize = 50 << 20

// DefaultUserAgent identifies the fetcher to servers that reject bare clients.
const DefaultUserAgent = "Mozilla/5.0 (compatible; research/1.0)"

// Ensure Fetcher implements research.Fetcher at compile time.
var _ research.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves resources using plain HTTP GET requests.
// Unlike rod.Fetcher, this does not execute JavaScript.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize limits how many bytes of a response body are read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultFetchTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the resource at url. Network timeouts, 5xx and 429
// responses are reported as ETRANSIENT; 404 and 410 as ENOTFOUND; other
// non-2xx responses as EINVALID.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*research.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, research.Errorf(research.EINVALID, "invalid request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, url, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode, url); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, classifyTransportError(ctx, url, err)
	}

	return &research.Resource{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// statusError maps an HTTP status code to an application error, or nil
// for 2xx codes.
func statusError(code int, url string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return research.Errorf(research.ETRANSIENT, "HTTP %d for %s", code, url)
	case code == http.StatusNotFound || code == http.StatusGone:
		return research.Errorf(research.ENOTFOUND, "HTTP %d for %s", code, url)
	default:
		return research.Errorf(research.EINVALID, "HTTP %d for %s", code, url)
	}
}

// classifyTransportError keeps caller cancellation as is and treats every
// other transport failure as transient.
func classifyTransportError(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return research.Errorf(research.ETRANSIENT, "timeout fetching %s", url)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return research.Errorf(research.ENOTFOUND, "host not found for %s", url)
	}
	return research.Errorf(research.ETRANSIENT, "fetch %s: %v", url, err)
}
