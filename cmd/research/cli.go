package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/ledger"
	"github.com/fwojciec/research/pipeline"
	"github.com/fwojciec/research/retry"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config Config

	Sessions research.SessionStore
	Searcher research.Searcher
	Pipeline *pipeline.Pipeline
	Ledger   *ledger.Ledger

	// Retry applies to the search call of the sources command.
	Retry retry.Policy
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config    string `default:"~/.research/config.yaml" help:"Path to the YAML config file"`
	DB        string `name:"db" env:"RESEARCH_DB" help:"Path to the session database"`
	GeminiKey string `name:"gemini-key" env:"GEMINI_API_KEY" help:"Gemini API key"`
	TavilyKey string `name:"tavily-key" env:"TAVILY_API_KEY" help:"Tavily API key"`
	Verbose   bool   `short:"v" help:"Log pipeline stages to stderr"`

	Ask      AskCmd      `cmd:"" help:"Research a question and print a cited answer"`
	Sources  SourcesCmd  `cmd:"" help:"Search for sources without acquiring them"`
	Sessions SessionsCmd `cmd:"" help:"List past research sessions"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Query       string   `arg:"" help:"Question to research"`
	Mode        string   `short:"m" default:"online" enum:"online,local,hybrid" help:"Where sources come from: online, local or hybrid"`
	Path        []string `short:"p" name:"path" help:"Local file or directory to include (repeatable)"`
	Recursive   bool     `short:"r" help:"Scan local directories recursively"`
	Yes         bool     `short:"y" help:"Approve every source without asking"`
	NoSummaries bool     `help:"Show search snippets instead of generated summaries when approving sources"`
	Render      bool     `help:"Render article pages in headless Chrome"`
	NoSave      bool     `help:"Do not save downloaded sources to the scratch directory"`

	Overrides `embed:""`
}

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	answer, err := deps.Pipeline.Run(deps.Ctx, pipeline.Request{
		Query:      c.Query,
		Mode:       pipeline.Mode(c.Mode),
		LocalPaths: c.Path,
		Recursive:  c.Recursive,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", research.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, answer.Text)

	fmt.Fprintln(deps.Stderr)
	fmt.Fprintln(deps.Stderr, answer.AcquisitionSummary)
	fmt.Fprintln(deps.Stderr, answer.CostSummary)
	fmt.Fprintf(deps.Stderr, "Session %s\n", answer.Session.ID)
	return nil
}

// SourcesCmd is the "sources" subcommand.
type SourcesCmd struct {
	Query string `arg:"" help:"Search query"`

	Overrides `embed:""`
}

// Run executes the sources command.
func (c *SourcesCmd) Run(deps *Dependencies) error {
	cfg := deps.Config
	found, err := retry.Do(deps.Ctx, deps.Retry, "search", func(ctx context.Context) ([]research.Candidate, error) {
		return deps.Searcher.Search(ctx, c.Query, cfg.MaxResults)
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", research.ErrorMessage(err))
		return err
	}

	candidates, err := research.FilterCandidates(found, cfg.Threshold, cfg.MaxResults)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", research.ErrorMessage(err))
		return err
	}

	if len(candidates) == 0 {
		fmt.Fprintf(deps.Stdout, "No sources above relevance %.2f (%d found).\n", cfg.Threshold, len(found))
		return nil
	}
	PrintCandidates(deps.Stdout, candidates)
	if deps.Ledger != nil && deps.Ledger.Len() > 0 {
		fmt.Fprintln(deps.Stderr, deps.Ledger.Summary())
	}
	return nil
}

// SessionsCmd is the "sessions" subcommand.
type SessionsCmd struct {
	ID    string `arg:"" optional:"" help:"Show one session in detail"`
	Query string `short:"q" help:"Only sessions with this exact query"`
	Limit int    `short:"n" default:"20" help:"Maximum sessions to list"`
}

// Run executes the sessions command.
func (c *SessionsCmd) Run(deps *Dependencies) error {
	if c.ID != "" {
		r, err := deps.Sessions.FindSessionByID(deps.Ctx, c.ID)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", research.ErrorMessage(err))
			return err
		}
		printSession(deps.Stdout, r)
		return nil
	}

	filter := research.SessionFilter{Limit: c.Limit}
	if c.Query != "" {
		filter.Query = &c.Query
	}
	sessions, err := deps.Sessions.FindSessions(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", research.ErrorMessage(err))
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(deps.Stdout, "No sessions yet. Run 'research ask' to start one.")
		return nil
	}

	for _, r := range sessions {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %-6s  $%s  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), status, r.SessionTotal.StringFixed(4), r.Query)
	}
	return nil
}

func printSession(w io.Writer, r *research.SessionRecord) {
	fmt.Fprintf(w, "Session:   %s\n", r.ID)
	fmt.Fprintf(w, "Query:     %s\n", r.Query)
	fmt.Fprintf(w, "Mode:      %s\n", r.Mode)
	fmt.Fprintf(w, "Started:   %s\n", r.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:  %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Sources:   %d found, %d approved, %d loaded, %d failed\n",
		r.SourcesFound, r.SourcesApproved, r.DocumentsLoaded, r.Failures)
	fmt.Fprintf(w, "Chunks:    %d created, %d embedded\n", r.ChunksCreated, r.ChunksEmbedded)
	fmt.Fprintf(w, "Cost:      $%s\n", r.SessionTotal.StringFixed(4))
	for _, op := range slices.Sorted(maps.Keys(r.BreakdownByOperation)) {
		fmt.Fprintf(w, "  %s: $%s\n", op, r.BreakdownByOperation[op].StringFixed(4))
	}
	if r.Success {
		fmt.Fprintf(w, "Answer:    %d characters\n", r.AnswerLength)
	} else {
		fmt.Fprintf(w, "Error:     %s\n", r.ErrorMessage)
	}
	if len(r.Citations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, research.FormatSources(r.Citations))
	}
}
