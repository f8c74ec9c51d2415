package embed_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/embed"
	"github.com/fwojciec/research/ledger"
	"github.com/fwojciec/research/mock"
	"github.com/fwojciec/research/retry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunks(n int) []research.Chunk {
	out := make([]research.Chunk, n)
	for i := range out {
		out[i] = research.Chunk{
			ID:       research.ChunkID{DocumentID: "doc", Index: i},
			Text:     fmt.Sprintf("chunk %d", i),
			Metadata: research.ChunkMetadata{ChunkIndex: i},
		}
	}
	return out
}

func provider(embed func(ctx context.Context, texts []string) (*research.Embedding, error)) *mock.EmbeddingProvider {
	return &mock.EmbeddingProvider{
		EmbedFn: embed,
		PriceFn: func() research.Price {
			return research.Price{Provider: "test", Model: "embed-1", Unit: "token", PerUnit: decimal.RequireFromString("0.001")}
		},
	}
}

func vectorsFor(texts []string) *research.Embedding {
	vectors := make([][]float32, len(texts))
	var units int64
	for i, t := range texts {
		vectors[i] = []float32{float32(len(t))}
		units += int64(len(strings.Fields(t)))
	}
	return &research.Embedding{Vectors: vectors, Units: units}
}

func TestEmbedder_Embed(t *testing.T) {
	t.Parallel()

	t.Run("embeds in batches and keeps input order", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var sizes []int
		l := ledger.New()
		e := &embed.Embedder{
			Provider: provider(func(ctx context.Context, texts []string) (*research.Embedding, error) {
				mu.Lock()
				sizes = append(sizes, len(texts))
				mu.Unlock()
				return vectorsFor(texts), nil
			}),
			Costs:       l,
			BatchSize:   4,
			Concurrency: 3,
			Retry:       retry.Policy{Delays: []time.Duration{0, 0}},
		}

		result, err := e.Embed(context.Background(), chunks(10))

		require.NoError(t, err)
		require.Len(t, result.Embedded, 10)
		for i, ec := range result.Embedded {
			assert.Equal(t, i, ec.Chunk.ID.Index)
		}
		assert.ElementsMatch(t, []int{4, 4, 2}, sizes)
		assert.Empty(t, result.Failed)
		assert.Equal(t, 3, l.Len())
		assert.Equal(t, "0.02", l.SessionTotal().String())
	})

	t.Run("surfaces failed batches without stopping others", func(t *testing.T) {
		t.Parallel()

		l := ledger.New()
		e := &embed.Embedder{
			Provider: provider(func(ctx context.Context, texts []string) (*research.Embedding, error) {
				if texts[0] == "chunk 2" {
					return nil, research.Errorf(research.EINVALID, "content rejected")
				}
				return vectorsFor(texts), nil
			}),
			Costs:     l,
			BatchSize: 2,
			Retry:     retry.Policy{Delays: []time.Duration{0, 0}},
		}

		result, err := e.Embed(context.Background(), chunks(6))

		require.NoError(t, err)
		assert.Len(t, result.Embedded, 4)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, 2, result.Failed[0].Chunks[0].ID.Index)
		assert.Equal(t, 2, result.FailedChunks())
		assert.Equal(t, 2, l.Len(), "only successful calls are priced")
	})

	t.Run("retries transient provider errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		e := &embed.Embedder{
			Provider: provider(func(ctx context.Context, texts []string) (*research.Embedding, error) {
				if calls.Add(1) < 3 {
					return nil, research.Errorf(research.ETRANSIENT, "HTTP 429")
				}
				return vectorsFor(texts), nil
			}),
			Retry: retry.Policy{Delays: []time.Duration{0, 0}},
		}

		result, err := e.Embed(context.Background(), chunks(1))

		require.NoError(t, err)
		assert.Len(t, result.Embedded, 1)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("treats a vector count mismatch as a failed batch", func(t *testing.T) {
		t.Parallel()

		e := &embed.Embedder{
			Provider: provider(func(ctx context.Context, texts []string) (*research.Embedding, error) {
				return &research.Embedding{Vectors: [][]float32{{1}}}, nil
			}),
			BatchSize: 3,
			Retry:     retry.Policy{Delays: []time.Duration{0}},
		}

		result, err := e.Embed(context.Background(), chunks(3))

		require.NoError(t, err)
		assert.Empty(t, result.Embedded)
		assert.Equal(t, 3, result.FailedChunks())
	})

	t.Run("fails loudly when a cost event is inconsistent", func(t *testing.T) {
		t.Parallel()

		e := &embed.Embedder{
			Provider: provider(func(ctx context.Context, texts []string) (*research.Embedding, error) {
				return vectorsFor(texts), nil
			}),
			Costs: &mock.CostRecorder{RecordFn: func(event research.CostEvent) error {
				return research.Errorf(research.EINTEGRITY, "bad total")
			}},
			Retry: retry.Policy{Delays: []time.Duration{0}},
		}

		_, err := e.Embed(context.Background(), chunks(2))

		assert.Equal(t, research.EINTEGRITY, research.ErrorCode(err))
	})

	t.Run("returns empty result for no chunks", func(t *testing.T) {
		t.Parallel()

		e := &embed.Embedder{Provider: provider(nil)}

		result, err := e.Embed(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, result.Embedded)
		assert.Empty(t, result.Failed)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		e := &embed.Embedder{
			Provider: provider(func(ctx context.Context, texts []string) (*research.Embedding, error) {
				cancel()
				return nil, ctx.Err()
			}),
			Retry: retry.Policy{Delays: []time.Duration{0}},
		}

		_, err := e.Embed(ctx, chunks(2))

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEmbedder_EmbedQuery(t *testing.T) {
	t.Parallel()

	l := ledger.New()
	e := &embed.Embedder{
		Provider: provider(func(ctx context.Context, texts []string) (*research.Embedding, error) {
			return vectorsFor(texts), nil
		}),
		Costs: l,
	}

	vector, err := e.EmbedQuery(context.Background(), "what is go")

	require.NoError(t, err)
	assert.Equal(t, []float32{10}, vector)
	events := l.Events()
	require.Len(t, events, 1)
	assert.Equal(t, research.OperationEmbedding, events[0].Operation)
	assert.Equal(t, int64(3), events[0].Units)
}
