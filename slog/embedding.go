package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/research"
)

// Ensure LoggingEmbeddingProvider implements research.EmbeddingProvider.
var _ research.EmbeddingProvider = (*LoggingEmbeddingProvider)(nil)

// LoggingEmbeddingProvider wraps an EmbeddingProvider with logging.
type LoggingEmbeddingProvider struct {
	next   research.EmbeddingProvider
	logger *slog.Logger
}

// NewLoggingEmbeddingProvider creates a new LoggingEmbeddingProvider.
func NewLoggingEmbeddingProvider(next research.EmbeddingProvider, logger *slog.Logger) *LoggingEmbeddingProvider {
	return &LoggingEmbeddingProvider{next: next, logger: logger}
}

// Embed delegates to the wrapped provider and logs the batch.
func (p *LoggingEmbeddingProvider) Embed(ctx context.Context, texts []string) (emb *research.Embedding, err error) {
	defer func(begin time.Time) {
		var units int64
		if emb != nil {
			units = emb.Units
		}
		p.logger.Info("embed",
			"texts", len(texts),
			"units", units,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Embed(ctx, texts)
}

// Price delegates to the wrapped provider.
func (p *LoggingEmbeddingProvider) Price() research.Price {
	return p.next.Price()
}

// Ensure LoggingVectorStore implements research.VectorStore.
var _ research.VectorStore = (*LoggingVectorStore)(nil)

// LoggingVectorStore wraps a VectorStore with logging.
type LoggingVectorStore struct {
	next   research.VectorStore
	logger *slog.Logger
}

// NewLoggingVectorStore creates a new LoggingVectorStore.
func NewLoggingVectorStore(next research.VectorStore, logger *slog.Logger) *LoggingVectorStore {
	return &LoggingVectorStore{next: next, logger: logger}
}

// Upsert delegates to the wrapped store and logs the write.
func (s *LoggingVectorStore) Upsert(ctx context.Context, chunks []research.EmbeddedChunk) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("vector upsert",
			"chunks", len(chunks),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Upsert(ctx, chunks)
}

// Query delegates to the wrapped store and logs the best score.
func (s *LoggingVectorStore) Query(ctx context.Context, vector []float32, k int) (results []research.ScoredChunk, err error) {
	defer func(begin time.Time) {
		var top float32
		if len(results) > 0 {
			top = results[0].Score
		}
		s.logger.Info("vector query",
			"k", k,
			"count", len(results),
			"top", top,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Query(ctx, vector, k)
}
