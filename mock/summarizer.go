package mock

import (
	"context"

	"github.com/fwojciec/research"
)

var _ research.Summarizer = (*Summarizer)(nil)

// Summarizer is a mock implementation of research.Summarizer.
type Summarizer struct {
	SummarizeFn func(ctx context.Context, query string, c research.Candidate) (string, error)
}

func (s *Summarizer) Summarize(ctx context.Context, query string, c research.Candidate) (string, error) {
	return s.SummarizeFn(ctx, query, c)
}
