package research

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ChunkID identifies a chunk by its document and zero-based position.
type ChunkID struct {
	DocumentID string `json:"documentId"`
	Index      int    `json:"index"`
}

// String renders the ID as "<documentID>:<index>".
func (id ChunkID) String() string {
	return fmt.Sprintf("%s:%d", id.DocumentID, id.Index)
}

// ParseChunkID parses the output of ChunkID.String.
func ParseChunkID(s string) (ChunkID, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return ChunkID{}, Errorf(EINVALID, "invalid chunk ID %q", s)
	}
	docID, index := s[:i], s[i+1:]
	n, err := strconv.Atoi(index)
	if err != nil || n < 0 {
		return ChunkID{}, Errorf(EINVALID, "invalid chunk index in %q", s)
	}
	return ChunkID{DocumentID: docID, Index: n}, nil
}

// ChunkMetadata is the parent document's metadata plus the chunk position.
type ChunkMetadata struct {
	DocumentMetadata

	ChunkIndex int `json:"chunkIndex"`

	// Start is the rune offset of the chunk within the document content.
	Start int `json:"start"`
}

// Chunk is a window of document text sized for embedding.
type Chunk struct {
	ID       ChunkID       `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.ID.DocumentID == "" {
		return Errorf(EINVALID, "chunk document ID required")
	}
	if c.Text == "" {
		return Errorf(EINVALID, "chunk text required")
	}
	if c.ID.Index != c.Metadata.ChunkIndex {
		return Errorf(EINTEGRITY, "chunk %s carries index %d in metadata", c.ID, c.Metadata.ChunkIndex)
	}
	return nil
}

// EmbeddedChunk pairs a chunk with its vector.
type EmbeddedChunk struct {
	Chunk  Chunk     `json:"chunk"`
	Vector []float32 `json:"vector"`
}

// ScoredChunk is a retrieval result.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// VectorStore stores embedded chunks and answers nearest-neighbour queries.
type VectorStore interface {
	// Upsert inserts or replaces chunks keyed by chunk ID.
	Upsert(ctx context.Context, chunks []EmbeddedChunk) error

	// Query returns the k chunks most similar to vector, best first.
	Query(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)
}

// Embedding is the output of one embedding provider call.
type Embedding struct {
	// Vectors holds one vector per input text, in input order.
	Vectors [][]float32

	// Units is the billable unit count of the call (tokens for most providers).
	Units int64
}

// EmbeddingProvider turns texts into vectors.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) (*Embedding, error)

	// Price declares what one unit of Embedding.Units costs.
	Price() Price
}
