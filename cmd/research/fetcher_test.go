package main_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/research"
	main "github.com/fwojciec/research/cmd/research"
	"github.com/fwojciec/research/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedFetcher(name string, closeErr error) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*research.Resource, error) {
			return &research.Resource{URL: url, Body: []byte(name)}, nil
		},
		CloseFn: func() error { return closeErr },
	}
}

func TestKindFetcher(t *testing.T) {
	t.Parallel()

	t.Run("renders articles and fetches PDFs statically", func(t *testing.T) {
		t.Parallel()

		f := &main.KindFetcher{Static: namedFetcher("static", nil), Articles: namedFetcher("rendered", nil)}

		article, err := f.Fetch(context.Background(), "https://example.com/post")
		require.NoError(t, err)
		paper, err := f.Fetch(context.Background(), "https://arxiv.org/pdf/2401.00001")
		require.NoError(t, err)

		assert.Equal(t, "rendered", string(article.Body))
		assert.Equal(t, "static", string(paper.Body))
	})

	t.Run("uses the static fetcher when nothing renders", func(t *testing.T) {
		t.Parallel()

		f := &main.KindFetcher{Static: namedFetcher("static", nil)}

		res, err := f.Fetch(context.Background(), "https://example.com/post")

		require.NoError(t, err)
		assert.Equal(t, "static", string(res.Body))
		assert.NoError(t, f.Close())
	})

	t.Run("closes both fetchers", func(t *testing.T) {
		t.Parallel()

		errStatic := errors.New("static")
		errRendered := errors.New("rendered")
		f := &main.KindFetcher{Static: namedFetcher("static", errStatic), Articles: namedFetcher("rendered", errRendered)}

		err := f.Close()

		assert.ErrorIs(t, err, errStatic)
		assert.ErrorIs(t, err, errRendered)
	})
}
