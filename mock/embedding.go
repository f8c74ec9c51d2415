package mock

import (
	"context"

	"github.com/fwojciec/research"
)

var _ research.EmbeddingProvider = (*EmbeddingProvider)(nil)

// EmbeddingProvider is a mock implementation of research.EmbeddingProvider.
type EmbeddingProvider struct {
	EmbedFn func(ctx context.Context, texts []string) (*research.Embedding, error)
	PriceFn func() research.Price
}

func (p *EmbeddingProvider) Embed(ctx context.Context, texts []string) (*research.Embedding, error) {
	return p.EmbedFn(ctx, texts)
}

func (p *EmbeddingProvider) Price() research.Price {
	return p.PriceFn()
}

var _ research.VectorStore = (*VectorStore)(nil)

// VectorStore is a mock implementation of research.VectorStore.
type VectorStore struct {
	UpsertFn func(ctx context.Context, chunks []research.EmbeddedChunk) error
	QueryFn  func(ctx context.Context, vector []float32, k int) ([]research.ScoredChunk, error)
}

func (s *VectorStore) Upsert(ctx context.Context, chunks []research.EmbeddedChunk) error {
	return s.UpsertFn(ctx, chunks)
}

func (s *VectorStore) Query(ctx context.Context, vector []float32, k int) ([]research.ScoredChunk, error) {
	return s.QueryFn(ctx, vector, k)
}
