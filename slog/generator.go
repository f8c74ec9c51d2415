package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/research"
)

// Ensure LoggingGenerator implements research.Generator.
var _ research.Generator = (*LoggingGenerator)(nil)

// LoggingGenerator wraps a Generator with logging.
type LoggingGenerator struct {
	next   research.Generator
	logger *slog.Logger
}

// NewLoggingGenerator creates a new LoggingGenerator.
func NewLoggingGenerator(next research.Generator, logger *slog.Logger) *LoggingGenerator {
	return &LoggingGenerator{next: next, logger: logger}
}

// Generate delegates to the wrapped generator and logs the answer size.
func (g *LoggingGenerator) Generate(ctx context.Context, question string, sources []research.Source) (answer string, err error) {
	defer func(begin time.Time) {
		g.logger.Info("generate",
			"sources", len(sources),
			"chars", len(answer),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.Generate(ctx, question, sources)
}

// Ensure LoggingSummarizer implements research.Summarizer.
var _ research.Summarizer = (*LoggingSummarizer)(nil)

// LoggingSummarizer wraps a Summarizer with logging.
type LoggingSummarizer struct {
	next   research.Summarizer
	logger *slog.Logger
}

// NewLoggingSummarizer creates a new LoggingSummarizer.
func NewLoggingSummarizer(next research.Summarizer, logger *slog.Logger) *LoggingSummarizer {
	return &LoggingSummarizer{next: next, logger: logger}
}

// Summarize delegates to the wrapped summarizer and logs the candidate.
func (s *LoggingSummarizer) Summarize(ctx context.Context, query string, c research.Candidate) (summary string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("summarize",
			"url", c.URL,
			"chars", len(summary),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Summarize(ctx, query, c)
}

// Ensure LoggingCostRecorder implements research.CostRecorder.
var _ research.CostRecorder = (*LoggingCostRecorder)(nil)

// LoggingCostRecorder logs every cost event at debug level.
type LoggingCostRecorder struct {
	next   research.CostRecorder
	logger *slog.Logger
}

// NewLoggingCostRecorder creates a new LoggingCostRecorder.
func NewLoggingCostRecorder(next research.CostRecorder, logger *slog.Logger) *LoggingCostRecorder {
	return &LoggingCostRecorder{next: next, logger: logger}
}

// Record delegates to the wrapped recorder and logs the event.
func (r *LoggingCostRecorder) Record(event research.CostEvent) (err error) {
	defer func() {
		r.logger.Debug("cost",
			"provider", event.Provider,
			"model", event.Model,
			"operation", string(event.Operation),
			"units", event.Units,
			"total", event.TotalCost.String(),
			"err", err,
		)
	}()
	return r.next.Record(event)
}
