package research

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SessionRecord is the persisted artifact of one research session.
type SessionRecord struct {
	ID        string        `json:"id"`
	Query     string        `json:"query"`
	Mode      string        `json:"mode"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	SourcesFound    int `json:"sourcesFound"`
	SourcesApproved int `json:"sourcesApproved"`
	DocumentsLoaded int `json:"documentsLoaded"`
	Failures        int `json:"failures"`
	ChunksCreated   int `json:"chunksCreated"`
	ChunksEmbedded  int `json:"chunksEmbedded"`
	AnswerLength    int `json:"answerLength"`

	SessionTotal         decimal.Decimal            `json:"sessionTotal"`
	BreakdownByOperation map[string]decimal.Decimal `json:"breakdownByOperation"`
	Citations            []CitationEntry            `json:"citations"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Validate returns an error if the record contains invalid fields.
func (r *SessionRecord) Validate() error {
	if r.ID == "" {
		return Errorf(EINVALID, "session ID required")
	}
	if r.Query == "" {
		return Errorf(EINVALID, "session query required")
	}
	return nil
}

// SessionStore persists session records.
type SessionStore interface {
	// CreateSession stores a new session record.
	CreateSession(ctx context.Context, r *SessionRecord) error

	// FindSessionByID retrieves a session by ID.
	// Returns ENOTFOUND if the session does not exist.
	FindSessionByID(ctx context.Context, id string) (*SessionRecord, error)

	// FindSessions returns sessions, most recent first.
	FindSessions(ctx context.Context, filter SessionFilter) ([]*SessionRecord, error)
}

// SessionFilter represents a filter for FindSessions.
type SessionFilter struct {
	Query *string `json:"query"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
