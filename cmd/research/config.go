package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/pipeline"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Search backends.
const (
	SearchAuto       = "auto"
	SearchTavily     = "tavily"
	SearchDuckDuckGo = "duckduckgo"
)

// Config holds the settings read from the YAML config file. Zero values
// in the file keep the defaults.
type Config struct {
	Threshold       float64 `yaml:"threshold"`
	MaxResults      int     `yaml:"max_results"`
	AcquireWorkers  int     `yaml:"acquire_workers"`
	ChunkWorkers    int     `yaml:"chunk_workers"`
	ChunkSize       int     `yaml:"chunk_size"`
	ChunkOverlap    int     `yaml:"chunk_overlap"`
	EmbedBatchSize  int     `yaml:"embed_batch_size"`
	TopK            int     `yaml:"k"`
	MaxContextChars int     `yaml:"max_context_chars"`

	// Search is "auto", "tavily" or "duckduckgo". Auto uses Tavily when an
	// API key is available.
	Search      string `yaml:"search"`
	SearchDepth string `yaml:"search_depth"`

	ScratchDir string `yaml:"scratch_dir"`

	Models ModelConfig `yaml:"models"`
}

// ModelConfig selects provider models and overrides their prices.
// Prices are USD per token; empty strings keep the built-in prices.
type ModelConfig struct {
	Generation       string `yaml:"generation"`
	Summary          string `yaml:"summary"`
	Embedding        string `yaml:"embedding"`
	Tokenizer        string `yaml:"tokenizer"`
	InputTokenPrice  string `yaml:"input_token_price"`
	OutputTokenPrice string `yaml:"output_token_price"`
	EmbedTokenPrice  string `yaml:"embed_token_price"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	p := pipeline.DefaultConfig()
	return Config{
		Threshold:       p.Threshold,
		MaxResults:      p.MaxResults,
		AcquireWorkers:  5,
		ChunkWorkers:    4,
		ChunkSize:       p.ChunkSize,
		ChunkOverlap:    p.ChunkOverlap,
		EmbedBatchSize:  64,
		TopK:            p.TopK,
		MaxContextChars: p.MaxContextChars,
		Search:          SearchAuto,
		SearchDepth:     "advanced",
		ScratchDir:      defaultScratchDir(),
	}
}

// LoadConfig reads the config file at path over the defaults. A missing
// file is not an error unless required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(expandHome(path))
	if errors.Is(err, fs.ErrNotExist) && !required {
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, research.Errorf(research.EINVALID, "invalid config file %s: %v", path, err)
	}
	cfg.merge(file)
	return cfg, cfg.Validate()
}

// merge copies the non-zero fields of o into c.
func (c *Config) merge(o Config) {
	if o.Threshold != 0 {
		c.Threshold = o.Threshold
	}
	setInt(&c.MaxResults, o.MaxResults)
	setInt(&c.AcquireWorkers, o.AcquireWorkers)
	setInt(&c.ChunkWorkers, o.ChunkWorkers)
	setInt(&c.ChunkSize, o.ChunkSize)
	setInt(&c.ChunkOverlap, o.ChunkOverlap)
	setInt(&c.EmbedBatchSize, o.EmbedBatchSize)
	setInt(&c.TopK, o.TopK)
	setInt(&c.MaxContextChars, o.MaxContextChars)
	setString(&c.Search, o.Search)
	setString(&c.SearchDepth, o.SearchDepth)
	setString(&c.ScratchDir, o.ScratchDir)
	setString(&c.Models.Generation, o.Models.Generation)
	setString(&c.Models.Summary, o.Models.Summary)
	setString(&c.Models.Embedding, o.Models.Embedding)
	setString(&c.Models.Tokenizer, o.Models.Tokenizer)
	setString(&c.Models.InputTokenPrice, o.Models.InputTokenPrice)
	setString(&c.Models.OutputTokenPrice, o.Models.OutputTokenPrice)
	setString(&c.Models.EmbedTokenPrice, o.Models.EmbedTokenPrice)
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate returns an EINVALID error for unusable settings.
func (c *Config) Validate() error {
	pc := c.Pipeline()
	if err := pc.Validate(); err != nil {
		return err
	}
	if c.AcquireWorkers <= 0 || c.ChunkWorkers <= 0 {
		return research.Errorf(research.EINVALID, "worker counts must be positive")
	}
	if c.EmbedBatchSize <= 0 {
		return research.Errorf(research.EINVALID, "embed batch size must be positive, got %d", c.EmbedBatchSize)
	}
	switch c.Search {
	case SearchAuto, SearchTavily, SearchDuckDuckGo:
	default:
		return research.Errorf(research.EINVALID, "search must be auto, tavily or duckduckgo, got %q", c.Search)
	}
	for _, p := range []string{c.Models.InputTokenPrice, c.Models.OutputTokenPrice, c.Models.EmbedTokenPrice} {
		if p == "" {
			continue
		}
		if _, err := decimal.NewFromString(p); err != nil {
			return research.Errorf(research.EINVALID, "invalid token price %q", p)
		}
	}
	return nil
}

// Pipeline returns the session settings.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		Threshold:       c.Threshold,
		MaxResults:      c.MaxResults,
		ChunkSize:       c.ChunkSize,
		ChunkOverlap:    c.ChunkOverlap,
		TopK:            c.TopK,
		MaxContextChars: c.MaxContextChars,
	}
}

// Overrides are command-line values that take precedence over the config
// file. Negative values mean unset.
type Overrides struct {
	Threshold  float64 `help:"Minimum relevance score (0-1)." default:"-1"`
	MaxResults int     `help:"Maximum sources to offer." default:"-1"`
	K          int     `name:"k" help:"Passages retrieved for the answer." default:"-1"`
	Search     string  `help:"Search backend: auto, tavily or duckduckgo."`
}

// Apply writes the set overrides into cfg and validates the result.
func (o *Overrides) Apply(cfg *Config) error {
	if o.Threshold >= 0 {
		cfg.Threshold = o.Threshold
	}
	if o.MaxResults >= 0 {
		cfg.MaxResults = o.MaxResults
	}
	if o.K >= 0 {
		cfg.TopK = o.K
	}
	setString(&cfg.Search, o.Search)
	return cfg.Validate()
}

func defaultScratchDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "research")
	}
	return filepath.Join(home, ".research", "sessions")
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
