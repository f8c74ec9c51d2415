package mock

import (
	"context"

	"github.com/fwojciec/research"
)

var _ research.Searcher = (*Searcher)(nil)

// Searcher is a mock implementation of research.Searcher.
type Searcher struct {
	SearchFn func(ctx context.Context, query string, maxResults int) ([]research.Candidate, error)
}

func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]research.Candidate, error) {
	return s.SearchFn(ctx, query, maxResults)
}

var _ research.Approver = (*Approver)(nil)

// Approver is a mock implementation of research.Approver.
type Approver struct {
	ApproveFn func(ctx context.Context, candidates []research.Candidate) ([]research.Candidate, error)
}

func (a *Approver) Approve(ctx context.Context, candidates []research.Candidate) ([]research.Candidate, error) {
	return a.ApproveFn(ctx, candidates)
}

var _ research.Scanner = (*Scanner)(nil)

// Scanner is a mock implementation of research.Scanner.
type Scanner struct {
	ScanFn func(ctx context.Context, root string, recursive bool) ([]string, error)
}

func (s *Scanner) Scan(ctx context.Context, root string, recursive bool) ([]string, error) {
	return s.ScanFn(ctx, root, recursive)
}
