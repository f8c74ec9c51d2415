package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/research"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Compile-time interface verification.
var _ research.SessionStore = (*SessionStore)(nil)

// SessionStore implements research.SessionStore using SQLite.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// sortableTime is RFC3339 with fixed-width fractional seconds so that
// stored timestamps sort lexically.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

const sessionColumns = `id, query, mode, started_at, duration_ms, sources_found, sources_approved,
	documents_loaded, failures, chunks_created, chunks_embedded, answer_length,
	session_total, breakdown, citations, success, error_message`

// CreateSession stores a new session record. An empty ID is replaced with a
// generated one.
func (s *SessionStore) CreateSession(ctx context.Context, r *research.SessionRecord) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	breakdown := r.BreakdownByOperation
	if breakdown == nil {
		breakdown = map[string]decimal.Decimal{}
	}
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	citations := r.Citations
	if citations == nil {
		citations = []research.CitationEntry{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("encode citations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Query, r.Mode, r.StartedAt.UTC().Format(sortableTime), r.Duration.Milliseconds(),
		r.SourcesFound, r.SourcesApproved, r.DocumentsLoaded, r.Failures, r.ChunksCreated, r.ChunksEmbedded,
		r.AnswerLength, r.SessionTotal.String(), string(breakdownJSON), string(citationsJSON), r.Success, r.ErrorMessage)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return research.Errorf(research.EINVALID, "session %s already exists", r.ID)
	}
	return err
}

// FindSessionByID retrieves a session by ID.
func (s *SessionStore) FindSessionByID(ctx context.Context, id string) (*research.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	r, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, research.Errorf(research.ENOTFOUND, "session not found")
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FindSessions returns sessions matching the filter, most recent first.
func (s *SessionStore) FindSessions(ctx context.Context, filter research.SessionFilter) ([]*research.SessionRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`)
	if filter.Query != nil {
		query.WriteString(" AND query = ?")
		args = append(args, *filter.Query)
	}
	query.WriteString(" ORDER BY started_at DESC, id")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*research.SessionRecord{}
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*research.SessionRecord, error) {
	var r research.SessionRecord
	var startedAt, total, breakdown, citations string
	var durationMS int64

	if err := row.Scan(&r.ID, &r.Query, &r.Mode, &startedAt, &durationMS, &r.SourcesFound, &r.SourcesApproved,
		&r.DocumentsLoaded, &r.Failures, &r.ChunksCreated, &r.ChunksEmbedded, &r.AnswerLength,
		&total, &breakdown, &citations, &r.Success, &r.ErrorMessage); err != nil {
		return nil, err
	}

	var err error
	if r.StartedAt, err = parseRFC3339(startedAt, "started_at"); err != nil {
		return nil, err
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond
	if r.SessionTotal, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("failed to parse session_total: %w", err)
	}
	if err := json.Unmarshal([]byte(breakdown), &r.BreakdownByOperation); err != nil {
		return nil, fmt.Errorf("failed to parse breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(citations), &r.Citations); err != nil {
		return nil, fmt.Errorf("failed to parse citations: %w", err)
	}
	return &r, nil
}
