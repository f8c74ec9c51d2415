// Package slog decorates research services with structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/research"
)

// Ensure LoggingFetcher implements research.Fetcher.
var _ research.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   research.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next research.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the result.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (res *research.Resource, err error) {
	defer func(begin time.Time) {
		var n int
		var contentType string
		if res != nil {
			n, contentType = len(res.Body), res.MediaType()
		}
		f.logger.Info("fetch",
			"url", url,
			"bytes", n,
			"type", contentType,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// Ensure LoggingTranscriptFetcher implements research.TranscriptFetcher.
var _ research.TranscriptFetcher = (*LoggingTranscriptFetcher)(nil)

// LoggingTranscriptFetcher wraps a TranscriptFetcher with logging.
type LoggingTranscriptFetcher struct {
	next   research.TranscriptFetcher
	logger *slog.Logger
}

// NewLoggingTranscriptFetcher creates a new LoggingTranscriptFetcher.
func NewLoggingTranscriptFetcher(next research.TranscriptFetcher, logger *slog.Logger) *LoggingTranscriptFetcher {
	return &LoggingTranscriptFetcher{next: next, logger: logger}
}

// FetchTranscript delegates to the wrapped fetcher and logs the result.
func (f *LoggingTranscriptFetcher) FetchTranscript(ctx context.Context, videoID string) (tr *research.Transcript, err error) {
	defer func(begin time.Time) {
		var segments int
		var lang string
		if tr != nil {
			segments, lang = len(tr.Segments), tr.Language
		}
		f.logger.Info("transcript",
			"video", videoID,
			"language", lang,
			"segments", segments,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.FetchTranscript(ctx, videoID)
}
