package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/research"
	"github.com/fwojciec/research/acquire"
	"github.com/fwojciec/research/chunk"
	"github.com/fwojciec/research/embed"
	"github.com/fwojciec/research/fs"
	"github.com/fwojciec/research/gemini"
	"github.com/fwojciec/research/goquery"
	"github.com/fwojciec/research/htmltomarkdown"
	reshttp "github.com/fwojciec/research/http"
	"github.com/fwojciec/research/ledger"
	"github.com/fwojciec/research/pdf"
	"github.com/fwojciec/research/pipeline"
	"github.com/fwojciec/research/readability"
	"github.com/fwojciec/research/retry"
	"github.com/fwojciec/research/rod"
	researchslog "github.com/fwojciec/research/slog"
	"github.com/fwojciec/research/sqlite"
	"github.com/fwojciec/research/tavily"
	"github.com/fwojciec/research/trafilatura"
	"github.com/fwojciec/research/youtube"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load(".env")

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database holding session records.
	DB *sqlite.DB

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var err error
	for i := len(m.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, m.closers[i]())
	}
	m.closers = nil
	if m.DB != nil {
		err = errors.Join(err, m.DB.Close())
		m.DB = nil
	}
	return err
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("research"),
		kong.Description("Answer questions from web and local sources with citations"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'research --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	cfg, err := LoadConfig(cli.Config, cli.Config != defaultConfigPathFlag)
	if err != nil {
		return err
	}
	switch cmd {
	case "ask":
		err = cli.Ask.Overrides.Apply(&cfg)
	case "sources":
		err = cli.Sources.Overrides.Apply(&cfg)
	}
	if err != nil {
		return err
	}
	deps.Config = cfg
	deps.Logger = newLogger(stderr, cli.Verbose)

	dbPath := cli.DB
	if dbPath == "" {
		dbPath = defaultDBPath()
	}
	m.DB = sqlite.NewDB(dbPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set RESEARCH_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
	}
	defer m.Close()
	deps.Sessions = sqlite.NewSessionStore(m.DB)

	switch cmd {
	case "ask":
		if err := m.wireAsk(ctx, cli, deps); err != nil {
			return err
		}
	case "sources":
		deps.Ledger = ledger.New()
		deps.Retry = newRetryPolicy(deps.Logger)
		static := m.staticFetcher(deps.Logger)
		deps.Searcher, err = newSearcher(deps.Config, cli.TavilyKey, static, deps.Ledger, deps.Logger)
		if err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// defaultConfigPathFlag is the literal default of the --config flag. Only
// an explicitly chosen config file must exist.
const defaultConfigPathFlag = "~/.research/config.yaml"

// wireAsk builds the pipeline for one session.
func (m *Main) wireAsk(ctx context.Context, cli *CLI, deps *Dependencies) error {
	cfg := deps.Config
	logger := deps.Logger
	ask := &cli.Ask

	if cli.GeminiKey == "" {
		fmt.Fprintln(deps.Stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return research.Errorf(research.EINVALID, "GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cli.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	tokenizerModel := cfg.Models.Tokenizer
	if tokenizerModel == "" {
		tokenizerModel = gemini.DefaultTokenizerModel
	}
	tokens, err := gemini.NewTokenCounter(tokenizerModel)
	if err != nil {
		return fmt.Errorf("failed to create token counter: %w", err)
	}

	deps.Ledger = ledger.New()
	costs := researchslog.NewLoggingCostRecorder(deps.Ledger, logger)

	embedder := gemini.NewEmbedder(client, tokens)
	generator := gemini.NewGenerator(client, costs)
	applyModels(cfg.Models, embedder, generator)

	static := m.staticFetcher(logger)
	var articles research.Fetcher = static
	if ask.Render {
		rendered, err := rod.NewFetcher()
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed for --render")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		m.closers = append(m.closers, rendered.Close)
		articles = &KindFetcher{Static: static, Articles: researchslog.NewLoggingFetcher(rendered, logger)}
	}

	retryPolicy := newRetryPolicy(logger)

	acquirer := &acquire.Acquirer{
		Fetcher:     articles,
		Extractor:   research.Extractors{trafilatura.NewExtractor(), readability.NewExtractor()},
		Converter:   htmltomarkdown.NewConverter(),
		PDF:         pdf.NewExtractor(),
		Transcripts: researchslog.NewLoggingTranscriptFetcher(youtube.NewTranscripts(static), logger),
		RateLimiter: acquire.NewDomainLimiter(2, 2),
		Concurrency: cfg.AcquireWorkers,
		Retry:       retryPolicy,
	}
	if !ask.NoSave {
		scratch := fs.NewScratchDir(cfg.ScratchDir, ask.Query)
		acquirer.Artifacts = scratch
		logger.Info("scratch directory", "dir", scratch.Dir())
	}

	// Retrieval only sees this session's chunks.
	chunks := sqlite.NewDB(":memory:")
	if err := chunks.Open(); err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	m.closers = append(m.closers, chunks.Close)

	p := &pipeline.Pipeline{
		Scanner:  fs.NewScanner(),
		Acquirer: acquirer,
		Chunker:  &chunk.Chunker{Concurrency: cfg.ChunkWorkers},
		Embedder: &embed.Embedder{
			Provider:  researchslog.NewLoggingEmbeddingProvider(embedder, logger),
			Costs:     costs,
			BatchSize: cfg.EmbedBatchSize,
			Retry:     retryPolicy,
		},
		Store:     researchslog.NewLoggingVectorStore(sqlite.NewChunkStore(chunks), logger),
		Generator: researchslog.NewLoggingGenerator(generator, logger),
		Sessions:  deps.Sessions,
		Ledger:    deps.Ledger,
		Retry:     retryPolicy,
		Config:    cfg.Pipeline(),
		Logger:    logger,
	}
	if ask.Mode != string(pipeline.ModeLocal) {
		p.Searcher, err = newSearcher(cfg, cli.TavilyKey, static, costs, logger)
		if err != nil {
			return err
		}
		p.Approver = &TerminalApprover{In: deps.Stdin, Out: deps.Stderr, All: ask.Yes}
		if !ask.Yes && !ask.NoSummaries {
			summarizer := gemini.NewSummarizer(client, costs)
			if cfg.Models.Summary != "" {
				summarizer.Model = cfg.Models.Summary
			}
			p.Summarizer = researchslog.NewLoggingSummarizer(summarizer, logger)
			p.SummaryConcurrency = cfg.AcquireWorkers
		}
	}
	deps.Pipeline = p
	return nil
}

// staticFetcher returns the plain HTTP fetcher shared by search, video
// transcripts and PDF downloads.
func (m *Main) staticFetcher(logger *slog.Logger) research.Fetcher {
	f := reshttp.NewFetcher()
	m.closers = append(m.closers, f.Close)
	return researchslog.NewLoggingFetcher(f, logger)
}

// newRetryPolicy returns the default provider retry policy, logging each
// retry as a warning.
func newRetryPolicy(logger *slog.Logger) retry.Policy {
	p := retry.DefaultPolicy()
	p.Logf = func(format string, args ...any) {
		logger.Warn(fmt.Sprintf(format, args...))
	}
	return p
}

// newSearcher picks the search backend. Auto prefers Tavily when a key
// is available and falls back to DuckDuckGo's HTML results.
func newSearcher(cfg Config, tavilyKey string, fetcher research.Fetcher, costs research.CostRecorder, logger *slog.Logger) (research.Searcher, error) {
	backend := cfg.Search
	if backend == SearchAuto {
		backend = SearchDuckDuckGo
		if tavilyKey != "" {
			backend = SearchTavily
		}
	}

	var s research.Searcher
	switch backend {
	case SearchTavily:
		if tavilyKey == "" {
			return nil, research.Errorf(research.EINVALID, "TAVILY_API_KEY not set")
		}
		ts, err := tavily.NewSearcher(tavilyKey, tavily.WithDepth(cfg.SearchDepth), tavily.WithCostRecorder(costs))
		if err != nil {
			return nil, err
		}
		s = ts
	default:
		s = goquery.NewSearcher(fetcher)
	}
	return researchslog.NewLoggingSearcher(s, logger), nil
}

// applyModels overrides models and prices set in the config file.
func applyModels(mc ModelConfig, e *gemini.Embedder, g *gemini.Generator) {
	if mc.Embedding != "" {
		e.Model = mc.Embedding
	}
	if mc.Generation != "" {
		g.Model = mc.Generation
	}
	if mc.EmbedTokenPrice != "" {
		e.TokenPrice = decimal.RequireFromString(mc.EmbedTokenPrice)
	}
	if mc.InputTokenPrice != "" {
		g.InputPrice = decimal.RequireFromString(mc.InputTokenPrice)
	}
	if mc.OutputTokenPrice != "" {
		g.OutputPrice = decimal.RequireFromString(mc.OutputTokenPrice)
	}
}

// newLogger logs to w when verbose is set and discards otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "research.db"
	}
	dir := filepath.Join(home, ".research")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "research.db")
}
