package research

import "context"

// Source is a retrieved passage offered to the generator. Sources are
// referred to by their 1-based position in the slice passed to Generate.
type Source struct {
	DocumentID string
	Title      string
	Location   string
	Text       string
}

// SourcesFromChunks converts retrieval results into generator sources,
// preserving order.
func SourcesFromChunks(results []ScoredChunk) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		md := r.Chunk.Metadata
		sources = append(sources, Source{
			DocumentID: r.Chunk.ID.DocumentID,
			Title:      md.Title,
			Location:   md.Source,
			Text:       r.Chunk.Text,
		})
	}
	return sources
}

// Generator answers questions from numbered sources.
type Generator interface {
	// Generate returns an answer whose citation markers ([1], [1,3], [2-4])
	// refer to positions in sources.
	Generate(ctx context.Context, question string, sources []Source) (string, error)
}
