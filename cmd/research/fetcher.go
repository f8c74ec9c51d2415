package main

import (
	"context"
	"errors"

	"github.com/fwojciec/research"
)

// Ensure KindFetcher implements research.Fetcher at compile time.
var _ research.Fetcher = (*KindFetcher)(nil)

// KindFetcher renders article pages with Articles and fetches everything
// else, PDFs in particular, with Static.
type KindFetcher struct {
	Static   research.Fetcher
	Articles research.Fetcher
}

// Fetch implements research.Fetcher.
func (f *KindFetcher) Fetch(ctx context.Context, url string) (*research.Resource, error) {
	if f.Articles != nil && research.DetectSourceKind(url) == research.SourceArticle {
		return f.Articles.Fetch(ctx, url)
	}
	return f.Static.Fetch(ctx, url)
}

// Close closes both fetchers.
func (f *KindFetcher) Close() error {
	err := f.Static.Close()
	if f.Articles != nil {
		err = errors.Join(err, f.Articles.Close())
	}
	return err
}
