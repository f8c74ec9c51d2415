// Package embed turns chunks into vectors in batches, recording the cost of
// every successful provider call.
package embed

import (
	"context"
	"fmt"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/retry"
	"golang.org/x/sync/errgroup"
)

// Defaults.
const (
	DefaultBatchSize   = 64
	DefaultConcurrency = 2
)

// Embedder batches chunks through an embedding provider.
type Embedder struct {
	Provider research.EmbeddingProvider
	Costs    research.CostRecorder

	BatchSize   int
	Concurrency int

	// Retry applies to each batch. A policy without delays falls back to
	// retry.DefaultPolicy.
	Retry retry.Policy
}

// BatchFailure records chunks whose batch failed after retries.
type BatchFailure struct {
	Chunks []research.Chunk
	Err    error
}

// Result holds embedded chunks in input order and the batches that failed.
type Result struct {
	Embedded []research.EmbeddedChunk
	Failed   []BatchFailure
}

// FailedChunks returns the number of chunks that were not embedded.
func (r *Result) FailedChunks() int {
	var n int
	for _, f := range r.Failed {
		n += len(f.Chunks)
	}
	return n
}

func (e *Embedder) policy() retry.Policy {
	if e.Retry.Delays == nil {
		p := retry.DefaultPolicy()
		p.Logf = e.Retry.Logf
		return p
	}
	return e.Retry
}

// Embed embeds chunks in batches of BatchSize. A batch that still fails
// after retries is reported in Result.Failed and does not stop the others.
// An error is returned when ctx is cancelled or a cost event cannot be
// recorded.
func (e *Embedder) Embed(ctx context.Context, chunks []research.Chunk) (*Result, error) {
	size := e.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var batches [][]research.Chunk
	for start := 0; start < len(chunks); start += size {
		batches = append(batches, chunks[start:min(start+size, len(chunks))])
	}

	type batchResult struct {
		vectors [][]float32
		err     error
	}
	results := make([]batchResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			vectors, err := e.embed(gctx, batch)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if research.ErrorCode(err) == research.EINTEGRITY {
					return err
				}
			}
			results[i] = batchResult{vectors: vectors, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{Embedded: make([]research.EmbeddedChunk, 0, len(chunks))}
	for i, r := range results {
		if r.err != nil {
			out.Failed = append(out.Failed, BatchFailure{Chunks: batches[i], Err: r.err})
			continue
		}
		for j, c := range batches[i] {
			out.Embedded = append(out.Embedded, research.EmbeddedChunk{Chunk: c, Vector: r.vectors[j]})
		}
	}
	return out, nil
}

// EmbedQuery embeds a single query text and records its cost.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.call(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) embed(ctx context.Context, batch []research.Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}
	return e.call(ctx, texts)
}

// call runs one provider call under the retry policy and records its cost.
func (e *Embedder) call(ctx context.Context, texts []string) ([][]float32, error) {
	name := fmt.Sprintf("embed %d texts", len(texts))
	emb, err := retry.Do(ctx, e.policy(), name, func(ctx context.Context) (*research.Embedding, error) {
		emb, err := e.Provider.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(emb.Vectors) != len(texts) {
			return nil, research.Errorf(research.EINTERNAL, "provider returned %d vectors for %d texts", len(emb.Vectors), len(texts))
		}
		return emb, nil
	})
	if err != nil {
		return nil, err
	}

	if e.Costs != nil {
		event := research.NewCostEvent(e.Provider.Price(), research.OperationEmbedding, emb.Units)
		if err := e.Costs.Record(event); err != nil {
			return nil, err
		}
	}
	return emb.Vectors, nil
}
