package sqlite

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fwojciec/research"
)

// Compile-time interface verification.
var _ research.VectorStore = (*ChunkStore)(nil)

// ChunkStore implements research.VectorStore using SQLite. Similarity is
// computed by a full scan, which suits the few thousand chunks of a
// research session.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore.
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// Upsert inserts or replaces chunks keyed by chunk ID. All chunks are
// written in one transaction.
func (s *ChunkStore) Upsert(ctx context.Context, chunks []research.EmbeddedChunk) error {
	for i := range chunks {
		if err := chunks[i].Chunk.Validate(); err != nil {
			return err
		}
		if len(chunks[i].Vector) == 0 {
			return research.Errorf(research.EINVALID, "chunk %s has no vector", chunks[i].Chunk.ID)
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, text, content_hash, source, source_type, title, origin, artifact_path, start, dims, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			content_hash = excluded.content_hash,
			source = excluded.source,
			source_type = excluded.source_type,
			title = excluded.title,
			origin = excluded.origin,
			artifact_path = excluded.artifact_path,
			start = excluded.start,
			dims = excluded.dims,
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, ec := range chunks {
		c := ec.Chunk
		md := c.Metadata
		if _, err := stmt.ExecContext(ctx, c.ID.String(), c.ID.DocumentID, c.ID.Index, c.Text, hashContent(c.Text),
			md.Source, string(md.SourceType), md.Title, string(md.Origin), md.ArtifactPath, md.Start,
			len(ec.Vector), encodeVector(ec.Vector), now); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// Query returns the k stored chunks most similar to vector by cosine
// similarity, best first. Ties keep chunk ID order.
func (s *ChunkStore) Query(ctx context.Context, vector []float32, k int) ([]research.ScoredChunk, error) {
	if k <= 0 {
		return nil, research.Errorf(research.EINVALID, "k must be positive, got %d", k)
	}
	if len(vector) == 0 {
		return nil, research.Errorf(research.EINVALID, "query vector required")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, source, source_type, title, origin, artifact_path, start, dims, vector
		FROM chunks
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []research.ScoredChunk
	for rows.Next() {
		var c research.Chunk
		var id, sourceType, origin string
		var dims int
		var blob []byte
		if err := rows.Scan(&id, &c.Text, &c.Metadata.Source, &sourceType,
			&c.Metadata.Title, &origin, &c.Metadata.ArtifactPath, &c.Metadata.Start, &dims, &blob); err != nil {
			return nil, err
		}
		if c.ID, err = research.ParseChunkID(id); err != nil {
			return nil, err
		}
		if dims != len(vector) {
			return nil, research.Errorf(research.EINVALID, "query has %d dimensions, chunk %s has %d", len(vector), c.ID, dims)
		}
		v, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		c.Metadata.SourceType = research.SourceKind(sourceType)
		c.Metadata.Origin = research.Origin(origin)
		c.Metadata.ChunkIndex = c.ID.Index

		results = append(results, research.ScoredChunk{Chunk: c, Score: cosine(vector, v)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
