package mock

import (
	"context"

	"github.com/fwojciec/research"
)

var _ research.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is a mock implementation of research.ArtifactStore.
type ArtifactStore struct {
	SaveArtifactFn func(ctx context.Context, a *research.Artifact) (string, error)
}

func (s *ArtifactStore) SaveArtifact(ctx context.Context, a *research.Artifact) (string, error) {
	return s.SaveArtifactFn(ctx, a)
}

var _ research.SessionStore = (*SessionStore)(nil)

// SessionStore is a mock implementation of research.SessionStore.
type SessionStore struct {
	CreateSessionFn   func(ctx context.Context, r *research.SessionRecord) error
	FindSessionByIDFn func(ctx context.Context, id string) (*research.SessionRecord, error)
	FindSessionsFn    func(ctx context.Context, filter research.SessionFilter) ([]*research.SessionRecord, error)
}

func (s *SessionStore) CreateSession(ctx context.Context, r *research.SessionRecord) error {
	return s.CreateSessionFn(ctx, r)
}

func (s *SessionStore) FindSessionByID(ctx context.Context, id string) (*research.SessionRecord, error) {
	return s.FindSessionByIDFn(ctx, id)
}

func (s *SessionStore) FindSessions(ctx context.Context, filter research.SessionFilter) ([]*research.SessionRecord, error) {
	return s.FindSessionsFn(ctx, filter)
}
