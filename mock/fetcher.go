package mock

import (
	"context"

	"github.com/fwojciec/research"
)

var _ research.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of research.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*research.Resource, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*research.Resource, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ research.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of research.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

var _ research.TranscriptFetcher = (*TranscriptFetcher)(nil)

// TranscriptFetcher is a mock implementation of research.TranscriptFetcher.
type TranscriptFetcher struct {
	FetchTranscriptFn func(ctx context.Context, videoID string) (*research.Transcript, error)
}

func (f *TranscriptFetcher) FetchTranscript(ctx context.Context, videoID string) (*research.Transcript, error) {
	return f.FetchTranscriptFn(ctx, videoID)
}
