package youtube_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/mock"
	"github.com/fwojciec/research/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchPage = `<html><head>
<title>How Coral Reefs Form - YouTube</title>
<meta name="title" content="How Coral Reefs Form">
</head><body><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
{"baseUrl":"https://www.youtube.com/api/timedtext?v=abcdefghijk&lang=en&kind=asr","name":{"runs":[{"text":"English (auto-generated)"}]},"languageCode":"en","kind":"asr"},
{"baseUrl":"https://www.youtube.com/api/timedtext?v=abcdefghijk&lang=de","name":{"simpleText":"German"},"languageCode":"de"},
{"baseUrl":"https://www.youtube.com/api/timedtext?v=abcdefghijk&lang=en-GB","name":{"simpleText":"English (UK)"},"languageCode":"en-GB"}
],"audioTracks":[]}}};</script></body></html>`

const timedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.5" dur="2.1">Corals are animals.</text>
<text start="65.25" dur="3">They build reefs from
calcium carbonate &amp;amp; that&amp;#39;s slow.</text>
<text start="70" dur="1">   </text>
</transcript>`

func pageFetcher(pages map[string]string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*research.Resource, error) {
			body, ok := pages[url]
			if !ok {
				return nil, research.Errorf(research.ENOTFOUND, "no page %s", url)
			}
			return &research.Resource{URL: url, ContentType: "text/html", Body: []byte(body)}, nil
		},
	}
}

func TestTranscripts_FetchTranscript(t *testing.T) {
	t.Parallel()

	t.Run("prefers manual English captions", func(t *testing.T) {
		t.Parallel()

		var requested []string
		fetcher := pageFetcher(map[string]string{
			"https://www.youtube.com/watch?v=abcdefghijk":                          watchPage,
			"https://www.youtube.com/api/timedtext?v=abcdefghijk&lang=en-GB":       timedText,
			"https://www.youtube.com/api/timedtext?v=abcdefghijk&lang=en&kind=asr": "<transcript/>",
		})
		fetch := fetcher.FetchFn
		fetcher.FetchFn = func(ctx context.Context, url string) (*research.Resource, error) {
			requested = append(requested, url)
			return fetch(ctx, url)
		}

		tr, err := youtube.NewTranscripts(fetcher).FetchTranscript(context.Background(), "abcdefghijk")

		require.NoError(t, err)
		assert.Equal(t, "abcdefghijk", tr.VideoID)
		assert.Equal(t, "How Coral Reefs Form", tr.Title)
		assert.Equal(t, "en-GB", tr.Language)
		assert.Equal(t, "https://www.youtube.com/api/timedtext?v=abcdefghijk&lang=en-GB", requested[1])
		require.Len(t, tr.Segments, 2)
		assert.Equal(t, 500*time.Millisecond, tr.Segments[0].Start)
		assert.Equal(t, "They build reefs from calcium carbonate & that's slow.", tr.Segments[1].Text)
		assert.Equal(t, "[00:00] Corals are animals.\n[01:05] They build reefs from calcium carbonate & that's slow.", tr.Text())
	})

	t.Run("falls back to generated captions", func(t *testing.T) {
		t.Parallel()

		page := strings.Replace(watchPage, `"languageCode":"en-GB"`, `"languageCode":"fr"`, 1)
		fetcher := pageFetcher(map[string]string{
			"https://www.youtube.com/watch?v=abcdefghijk":                          page,
			"https://www.youtube.com/api/timedtext?v=abcdefghijk&lang=en&kind=asr": timedText,
		})

		tr, err := youtube.NewTranscripts(fetcher).FetchTranscript(context.Background(), "abcdefghijk")

		require.NoError(t, err)
		assert.Equal(t, "en", tr.Language)
	})

	t.Run("returns ENOTFOUND without captions", func(t *testing.T) {
		t.Parallel()

		fetcher := pageFetcher(map[string]string{
			"https://www.youtube.com/watch?v=abcdefghijk": "<html><title>x</title></html>",
		})

		_, err := youtube.NewTranscripts(fetcher).FetchTranscript(context.Background(), "abcdefghijk")

		require.Error(t, err)
		assert.Equal(t, research.ENOTFOUND, research.ErrorCode(err))
	})

	t.Run("returns ENOTFOUND without a preferred language", func(t *testing.T) {
		t.Parallel()

		fetcher := pageFetcher(map[string]string{
			"https://www.youtube.com/watch?v=abcdefghijk": watchPage,
		})
		s := youtube.NewTranscripts(fetcher)
		s.Languages = []string{"ja"}

		_, err := s.FetchTranscript(context.Background(), "abcdefghijk")

		require.Error(t, err)
		assert.Equal(t, research.ENOTFOUND, research.ErrorCode(err))
	})

	t.Run("rejects malformed video ID", func(t *testing.T) {
		t.Parallel()

		_, err := youtube.NewTranscripts(&mock.Fetcher{}).FetchTranscript(context.Background(), "short")

		require.Error(t, err)
		assert.Equal(t, research.EINVALID, research.ErrorCode(err))
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*research.Resource, error) {
				return nil, research.Errorf(research.ETRANSIENT, "HTTP 503")
			},
		}

		_, err := youtube.NewTranscripts(fetcher).FetchTranscript(context.Background(), "abcdefghijk")

		assert.Equal(t, research.ETRANSIENT, research.ErrorCode(err))
	})
}

func TestParseTimedText(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid XML", func(t *testing.T) {
		t.Parallel()

		_, err := youtube.ParseTimedText([]byte("<transcript><text"))

		assert.Equal(t, research.EINVALID, research.ErrorCode(err))
	})

	t.Run("rejects invalid start", func(t *testing.T) {
		t.Parallel()

		_, err := youtube.ParseTimedText([]byte(`<transcript><text start="abc">hi</text></transcript>`))

		assert.Equal(t, research.EINVALID, research.ErrorCode(err))
	})

	t.Run("empty transcript has no segments", func(t *testing.T) {
		t.Parallel()

		segments, err := youtube.ParseTimedText([]byte(`<transcript></transcript>`))

		require.NoError(t, err)
		assert.Empty(t, segments)
	})
}
