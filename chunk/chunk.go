// Package chunk splits documents into overlapping windows in parallel.
package chunk

import (
	"context"

	"github.com/fwojciec/research"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of documents chunked at once.
const DefaultConcurrency = 4

// Chunker splits documents into chunks using a bounded worker pool.
type Chunker struct {
	Concurrency int
}

// Validate checks chunking parameters. overlap must be non-negative and
// strictly less than size.
func Validate(size, overlap int) error {
	if size <= 0 {
		return research.Errorf(research.EINVALID, "chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return research.Errorf(research.EINVALID, "chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return research.Errorf(research.EINVALID, "chunk overlap %d must be less than chunk size %d", overlap, size)
	}
	return nil
}

// Chunk splits every document into chunks of at most size runes that share
// overlap runes with their predecessor. Chunks are returned grouped by
// document in input order and ordered by index within each document.
// Blank documents produce no chunks.
func (c *Chunker) Chunk(ctx context.Context, docs []research.Document, size, overlap int) ([]research.Chunk, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([][]research.Chunk, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = chunkDocument(&docs[i], size, overlap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]research.Chunk, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func chunkDocument(doc *research.Document, size, overlap int) []research.Chunk {
	windows := Split(doc.Content, size, overlap)
	chunks := make([]research.Chunk, 0, len(windows))
	for i, w := range windows {
		chunks = append(chunks, research.Chunk{
			ID:   research.ChunkID{DocumentID: doc.ID, Index: i},
			Text: w.Text,
			Metadata: research.ChunkMetadata{
				DocumentMetadata: doc.Metadata,
				ChunkIndex:       i,
				Start:            w.Start,
			},
		})
	}
	return chunks
}
