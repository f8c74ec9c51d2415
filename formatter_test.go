package research_test

import (
	"testing"

	"github.com/fwojciec/research"
	"github.com/stretchr/testify/assert"
)

func TestFormatContext(t *testing.T) {
	t.Parallel()

	t.Run("formats single source with title", func(t *testing.T) {
		t.Parallel()

		sources := []research.Source{
			{Title: "Getting Started", Text: "Welcome to the docs."},
		}

		result, n := research.FormatContext(sources, 0)

		assert.Equal(t, "[1] Getting Started\nWelcome to the docs.", result)
		assert.Equal(t, 1, n)
	})

	t.Run("uses location when title is empty", func(t *testing.T) {
		t.Parallel()

		sources := []research.Source{
			{Location: "https://example.com/docs", Text: "Some content."},
		}

		result, _ := research.FormatContext(sources, 0)

		assert.Equal(t, "[1] https://example.com/docs\nSome content.", result)
	})

	t.Run("numbers multiple sources with blank line separator", func(t *testing.T) {
		t.Parallel()

		sources := []research.Source{
			{Title: "Doc One", Text: "First content."},
			{Title: "Doc Two", Text: "Second content."},
		}

		result, n := research.FormatContext(sources, 0)

		assert.Equal(t, "[1] Doc One\nFirst content.\n\n[2] Doc Two\nSecond content.", result)
		assert.Equal(t, 2, n)
	})

	t.Run("stops before exceeding the character budget", func(t *testing.T) {
		t.Parallel()

		sources := []research.Source{
			{Title: "A", Text: "12345"},
			{Title: "B", Text: "67890"},
		}

		result, n := research.FormatContext(sources, 15)

		assert.Equal(t, "[1] A\n12345", result)
		assert.Equal(t, 1, n)
	})

	t.Run("returns empty string for empty slice", func(t *testing.T) {
		t.Parallel()

		result, n := research.FormatContext(nil, 100)

		assert.Empty(t, result)
		assert.Zero(t, n)
	})
}

func TestSourcesFromChunks(t *testing.T) {
	t.Parallel()

	results := []research.ScoredChunk{
		{Chunk: research.Chunk{
			ID:   research.ChunkID{DocumentID: "d1", Index: 0},
			Text: "alpha",
			Metadata: research.ChunkMetadata{DocumentMetadata: research.DocumentMetadata{
				Title: "Doc", Source: "https://d1.com",
			}},
		}, Score: 0.9},
	}

	got := research.SourcesFromChunks(results)

	assert.Equal(t, []research.Source{{DocumentID: "d1", Title: "Doc", Location: "https://d1.com", Text: "alpha"}}, got)
}
