package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/research"
)

// Ensure LoggingSearcher implements research.Searcher.
var _ research.Searcher = (*LoggingSearcher)(nil)

// LoggingSearcher wraps a Searcher with logging.
type LoggingSearcher struct {
	next   research.Searcher
	logger *slog.Logger
}

// NewLoggingSearcher creates a new LoggingSearcher.
func NewLoggingSearcher(next research.Searcher, logger *slog.Logger) *LoggingSearcher {
	return &LoggingSearcher{next: next, logger: logger}
}

// Search delegates to the wrapped searcher and logs the result.
func (s *LoggingSearcher) Search(ctx context.Context, query string, maxResults int) (candidates []research.Candidate, err error) {
	defer func(begin time.Time) {
		s.logger.Info("search",
			"query", query,
			"max", maxResults,
			"count", len(candidates),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query, maxResults)
}
