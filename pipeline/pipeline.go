// Package pipeline sequences one research session: search, filter,
// approval, acquisition, chunking, embedding, retrieval, generation and
// citation assembly. Every stage is a collaborator supplied by the caller.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/acquire"
	"github.com/fwojciec/research/chunk"
	"github.com/fwojciec/research/embed"
	"github.com/fwojciec/research/ledger"
	"github.com/fwojciec/research/retry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultSummaryConcurrency bounds concurrent candidate summaries.
const DefaultSummaryConcurrency = 5

// Mode selects where sources come from.
type Mode string

// Mode constants.
const (
	ModeOnline Mode = "online"
	ModeLocal  Mode = "local"
	ModeHybrid Mode = "hybrid"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeOnline, ModeLocal, ModeHybrid:
		return true
	}
	return false
}

// Request is one research question.
type Request struct {
	Query string
	Mode  Mode

	// LocalPaths are files or directories loaded in local and hybrid mode.
	LocalPaths []string
	Recursive  bool
}

// Validate returns an error if the request cannot be run.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return research.Errorf(research.EINVALID, "query required")
	}
	if !r.Mode.Valid() {
		return research.Errorf(research.EINVALID, "mode must be online, local or hybrid, got %q", r.Mode)
	}
	if r.Mode != ModeOnline && len(r.LocalPaths) == 0 {
		return research.Errorf(research.EINVALID, "%s mode requires at least one local path", r.Mode)
	}
	return nil
}

// Config holds the tunables of a session.
type Config struct {
	Threshold       float64
	MaxResults      int
	ChunkSize       int
	ChunkOverlap    int
	TopK            int
	MaxContextChars int
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:       0.7,
		MaxResults:      10,
		ChunkSize:       1000,
		ChunkOverlap:    200,
		TopK:            5,
		MaxContextChars: 8000,
	}
}

// Validate returns an EINVALID error for unusable settings.
func (c *Config) Validate() error {
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > 1 {
		return research.Errorf(research.EINVALID, "relevance threshold must be within [0, 1], got %v", c.Threshold)
	}
	if err := chunk.Validate(c.ChunkSize, c.ChunkOverlap); err != nil {
		return err
	}
	if c.TopK <= 0 {
		return research.Errorf(research.EINVALID, "retrieval k must be positive, got %d", c.TopK)
	}
	if c.MaxContextChars < 0 {
		return research.Errorf(research.EINVALID, "max context chars must not be negative, got %d", c.MaxContextChars)
	}
	return nil
}

// Answer is the outcome of a session.
type Answer struct {
	// Text is the annotated answer followed by the list of cited sources.
	Text      string
	Citations []research.CitationEntry

	Candidates []research.Candidate
	Failures   []research.AcquisitionFailure

	// AcquisitionSummary reads e.g. "12 of 15 sources loaded; 3 failed: ...".
	AcquisitionSummary string
	CostSummary        string

	Session *research.SessionRecord
}

// Pipeline runs research sessions. Searcher and Approver are required in
// online and hybrid mode, Scanner in local and hybrid mode.
type Pipeline struct {
	Searcher  research.Searcher
	Approver  research.Approver
	Scanner   research.Scanner
	Acquirer  *acquire.Acquirer
	Chunker   *chunk.Chunker
	Embedder  *embed.Embedder
	Store     research.VectorStore
	Generator research.Generator

	// Summarizer, if set, describes each filtered candidate before approval.
	// A failed summary leaves the candidate without one.
	Summarizer research.Summarizer

	// SummaryConcurrency bounds in-flight summaries. Defaults to
	// DefaultSummaryConcurrency.
	SummaryConcurrency int

	// Sessions, if set, receives a record of every run, including failed ones.
	Sessions research.SessionStore

	// Ledger must be the recorder given to every paid collaborator.
	Ledger *ledger.Ledger

	// Retry applies to search calls. A policy without delays falls back to
	// retry.DefaultPolicy.
	Retry retry.Policy

	Config Config
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}

func (p *Pipeline) policy() retry.Policy {
	if p.Retry.Delays == nil {
		r := retry.DefaultPolicy()
		r.Logf = p.Retry.Logf
		return r
	}
	return p.Retry
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// session accumulates counts for the session record while a run proceeds.
type session struct {
	record  research.SessionRecord
	answer  *Answer
	started time.Time
}

// Run executes a session. The session record is persisted whether or not
// the run succeeds; a persistence error is returned only when the run
// itself succeeded.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Answer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if err := p.check(req.Mode); err != nil {
		return nil, err
	}

	s := &session{
		record: research.SessionRecord{
			ID:        uuid.New().String(),
			Query:     req.Query,
			Mode:      string(req.Mode),
			StartedAt: p.now(),
		},
		answer: &Answer{},
	}
	s.started = s.record.StartedAt
	p.logger().Info("session started", "id", s.record.ID, "query", req.Query, "mode", req.Mode)

	runErr := p.run(ctx, req, s)

	if err := p.finish(ctx, s, runErr); err != nil && runErr == nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	return s.answer, nil
}

// summarize fills in candidate summaries concurrently. Only cancellation
// is an error; failed summaries are logged and skipped.
func (p *Pipeline) summarize(ctx context.Context, query string, candidates []research.Candidate) error {
	if p.Summarizer == nil || len(candidates) == 0 {
		return nil
	}
	limit := p.SummaryConcurrency
	if limit <= 0 {
		limit = DefaultSummaryConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range candidates {
		g.Go(func() error {
			summary, err := p.Summarizer.Summarize(ctx, query, candidates[i])
			if err != nil {
				p.logger().Warn("summary failed", "url", candidates[i].URL, "err", err)
				return nil
			}
			candidates[i].Summary = summary
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger().Info("summarize", "candidates", len(candidates))
	return nil
}

func (p *Pipeline) check(mode Mode) error {
	if mode != ModeLocal && (p.Searcher == nil || p.Approver == nil) {
		return research.Errorf(research.EINVALID, "%s mode requires a searcher and an approver", mode)
	}
	if mode != ModeOnline && p.Scanner == nil {
		return research.Errorf(research.EINVALID, "%s mode requires a scanner", mode)
	}
	if p.Acquirer == nil || p.Chunker == nil || p.Embedder == nil || p.Store == nil || p.Generator == nil || p.Ledger == nil {
		return research.Errorf(research.EINVALID, "pipeline is missing a collaborator")
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, req Request, s *session) error {
	log := p.logger()
	cfg := p.Config

	// Search and filter.
	var candidates []research.Candidate
	if req.Mode != ModeLocal {
		found, err := retry.Do(ctx, p.policy(), "search", func(ctx context.Context) ([]research.Candidate, error) {
			return p.Searcher.Search(ctx, req.Query, cfg.MaxResults)
		})
		switch {
		case err != nil && req.Mode == ModeHybrid && ctx.Err() == nil:
			log.Warn("search failed, continuing with local sources", "err", err)
		case err != nil:
			return fmt.Errorf("search: %w", err)
		default:
			s.record.SourcesFound = len(found)
			log.Info("search", "found", len(found))

			candidates, err = research.FilterCandidates(found, cfg.Threshold, cfg.MaxResults)
			if err != nil {
				return err
			}
			log.Info("filter", "kept", len(candidates), "threshold", cfg.Threshold)
		}
	}
	s.answer.Candidates = candidates

	var localPaths []string
	if req.Mode != ModeOnline {
		// Overlapping roots list the same file more than once; the first
		// occurrence is kept.
		seen := make(map[string]bool)
		for _, root := range req.LocalPaths {
			paths, err := p.Scanner.Scan(ctx, root, req.Recursive)
			if err != nil {
				return fmt.Errorf("scan %s: %w", root, err)
			}
			for _, path := range paths {
				id, err := research.LocalDocumentID(path)
				if err != nil {
					return err
				}
				if seen[id] {
					continue
				}
				seen[id] = true
				localPaths = append(localPaths, path)
			}
		}
		log.Info("scan", "files", len(localPaths))
	}

	// Acquisition starts on every filtered candidate while approval is pending.
	actx, cancel := context.WithCancel(ctx)
	defer cancel()
	batch := p.Acquirer.Start(actx, candidates, localPaths)

	if err := p.summarize(ctx, req.Query, candidates); err != nil {
		return err
	}

	var approved []research.Candidate
	if len(candidates) > 0 {
		var err error
		approved, err = p.Approver.Approve(ctx, candidates)
		if err != nil {
			return fmt.Errorf("approve: %w", err)
		}
	}
	s.record.SourcesApproved = len(approved)
	log.Info("approve", "approved", len(approved), "offered", len(candidates))

	acquired, err := batch.Collect(approved)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	s.answer.Failures = acquired.Failures
	s.answer.AcquisitionSummary = acquired.Summary()
	s.record.DocumentsLoaded = len(acquired.Documents)
	s.record.Failures = len(acquired.Failures)
	log.Info("acquire", "loaded", len(acquired.Documents), "failed", len(acquired.Failures))
	if len(acquired.Documents) == 0 {
		return research.Errorf(research.ENOTFOUND, "no sources could be loaded: %s", s.answer.AcquisitionSummary)
	}

	// Chunk, embed and index.
	chunks, err := p.Chunker.Chunk(ctx, acquired.Documents, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	s.record.ChunksCreated = len(chunks)
	log.Info("chunk", "chunks", len(chunks), "documents", len(acquired.Documents))

	embedded, err := p.Embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	s.record.ChunksEmbedded = len(embedded.Embedded)
	log.Info("embed", "embedded", len(embedded.Embedded), "failed", embedded.FailedChunks())
	if len(embedded.Embedded) == 0 {
		if len(embedded.Failed) > 0 {
			return fmt.Errorf("embed: %w", embedded.Failed[0].Err)
		}
		return research.Errorf(research.ENOTFOUND, "loaded sources contain no text")
	}
	if err := p.Store.Upsert(ctx, embedded.Embedded); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	// Retrieve.
	query, err := p.Embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}
	results, err := p.Store.Query(ctx, query, cfg.TopK)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}
	sources := research.SourcesFromChunks(results)
	if _, n := research.FormatContext(sources, cfg.MaxContextChars); n < len(sources) {
		sources = sources[:n]
	}
	log.Info("retrieve", "results", len(results), "sources", len(sources))
	if len(sources) == 0 {
		return research.Errorf(research.ENOTFOUND, "no passages fit the context limit")
	}

	// Generate and cite.
	text, err := p.Generator.Generate(ctx, req.Query, sources)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	log.Info("generate", "chars", len(text))

	citations := research.NewCitationAssembler()
	citations.Describe(acquired.Documents...)
	annotated := citations.Annotate(text, sources)
	entries, err := citations.Entries()
	if err != nil {
		return err
	}

	s.answer.Citations = entries
	s.answer.Text = strings.TrimSpace(annotated)
	if list := research.FormatSources(entries); list != "" {
		s.answer.Text += "\n\n" + list
	}
	s.record.AnswerLength = len([]rune(annotated))
	s.record.Citations = entries
	return nil
}

// finish completes and persists the session record.
func (p *Pipeline) finish(ctx context.Context, s *session, runErr error) error {
	log := p.logger()
	r := &s.record

	r.Duration = p.now().Sub(s.started)
	r.SessionTotal = p.Ledger.SessionTotal()
	breakdown, err := p.Ledger.Breakdown(ledger.ByOperation)
	if err != nil {
		return err
	}
	r.BreakdownByOperation = breakdown
	r.Success = runErr == nil
	if runErr != nil {
		r.ErrorMessage = research.ErrorMessage(runErr)
		if research.ErrorCode(runErr) == research.EINTERNAL {
			r.ErrorMessage = runErr.Error()
		}
	}

	s.answer.CostSummary = p.Ledger.Summary()
	s.answer.Session = r

	log.Info("session finished", "id", r.ID, "success", r.Success, "duration", r.Duration, "cost", r.SessionTotal.String())

	if p.Sessions == nil {
		return nil
	}
	// A cancelled session is still recorded.
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		ctx = context.WithoutCancel(ctx)
	}
	if err := p.Sessions.CreateSession(ctx, r); err != nil {
		log.Error("session not saved", "id", r.ID, "err", err)
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
