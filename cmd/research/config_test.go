package main_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/research"
	main "github.com/fwojciec/research/cmd/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when the file is missing", func(t *testing.T) {
		t.Parallel()

		cfg, err := main.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)

		require.NoError(t, err)
		assert.InDelta(t, 0.7, cfg.Threshold, 1e-9)
		assert.Equal(t, 10, cfg.MaxResults)
		assert.Equal(t, 5, cfg.AcquireWorkers)
		assert.Equal(t, 4, cfg.ChunkWorkers)
		assert.Equal(t, 1000, cfg.ChunkSize)
		assert.Equal(t, 200, cfg.ChunkOverlap)
		assert.Equal(t, 64, cfg.EmbedBatchSize)
		assert.Equal(t, 5, cfg.TopK)
		assert.Equal(t, 8000, cfg.MaxContextChars)
		assert.Equal(t, "advanced", cfg.SearchDepth)
		assert.Equal(t, main.SearchAuto, cfg.Search)
	})

	t.Run("fails when a required file is missing", func(t *testing.T) {
		t.Parallel()

		_, err := main.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)

		assert.Error(t, err)
	})

	t.Run("overlays file values on the defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
threshold: 0.5
chunk_size: 600
chunk_overlap: 100
k: 8
search: duckduckgo
models:
  generation: gemini-2.5-pro
  summary: gemini-2.5-flash
  input_token_price: "0.00000125"
`)

		cfg, err := main.LoadConfig(path, true)

		require.NoError(t, err)
		assert.InDelta(t, 0.5, cfg.Threshold, 1e-9)
		assert.Equal(t, 600, cfg.ChunkSize)
		assert.Equal(t, 100, cfg.ChunkOverlap)
		assert.Equal(t, 8, cfg.TopK)
		assert.Equal(t, main.SearchDuckDuckGo, cfg.Search)
		assert.Equal(t, "gemini-2.5-pro", cfg.Models.Generation)
		assert.Equal(t, "gemini-2.5-flash", cfg.Models.Summary)
		assert.Equal(t, "0.00000125", cfg.Models.InputTokenPrice)
		assert.Equal(t, 10, cfg.MaxResults)
	})

	t.Run("rejects overlap not smaller than chunk size", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "chunk_size: 100\nchunk_overlap: 150\n")

		_, err := main.LoadConfig(path, true)

		assert.Equal(t, research.EINVALID, research.ErrorCode(err))
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "threshold: [\n")

		_, err := main.LoadConfig(path, true)

		assert.Equal(t, research.EINVALID, research.ErrorCode(err))
	})

	t.Run("rejects unknown search backends and bad prices", func(t *testing.T) {
		t.Parallel()

		_, err := main.LoadConfig(writeConfig(t, "search: bing\n"), true)
		assert.Equal(t, research.EINVALID, research.ErrorCode(err))

		_, err = main.LoadConfig(writeConfig(t, "models:\n  embed_token_price: cheap\n"), true)
		assert.Equal(t, research.EINVALID, research.ErrorCode(err))
	})
}

func TestOverrides_Apply(t *testing.T) {
	t.Parallel()

	unset := func() main.Overrides {
		return main.Overrides{Threshold: -1, MaxResults: -1, K: -1}
	}

	t.Run("keeps config values when nothing is set", func(t *testing.T) {
		t.Parallel()

		cfg := main.DefaultConfig()
		o := unset()

		require.NoError(t, o.Apply(&cfg))
		assert.Equal(t, main.DefaultConfig(), cfg)
	})

	t.Run("replaces set values", func(t *testing.T) {
		t.Parallel()

		cfg := main.DefaultConfig()
		o := unset()
		o.Threshold = 0
		o.MaxResults = 3
		o.K = 2
		o.Search = main.SearchTavily

		require.NoError(t, o.Apply(&cfg))
		assert.Zero(t, cfg.Threshold)
		assert.Equal(t, 3, cfg.MaxResults)
		assert.Equal(t, 2, cfg.TopK)
		assert.Equal(t, main.SearchTavily, cfg.Search)
	})

	t.Run("rejects a threshold above one", func(t *testing.T) {
		t.Parallel()

		cfg := main.DefaultConfig()
		o := unset()
		o.Threshold = 1.5

		assert.Equal(t, research.EINVALID, research.ErrorCode(o.Apply(&cfg)))
	})
}
