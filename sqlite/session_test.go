package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_CreateSession(t *testing.T) {
	t.Parallel()

	t.Run("round trips a record", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewSessionStore(setupTestDB(t))
		ctx := context.Background()
		started := time.Date(2025, 3, 1, 12, 0, 0, 500, time.UTC)
		r := &research.SessionRecord{
			Query:           "why are reefs bleaching",
			Mode:            "online",
			StartedAt:       started,
			Duration:        2500 * time.Millisecond,
			SourcesFound:    10,
			SourcesApproved: 4,
			DocumentsLoaded: 3,
			Failures:        1,
			ChunksCreated:   40,
			ChunksEmbedded:  40,
			AnswerLength:    812,
			SessionTotal:    decimal.RequireFromString("0.0123"),
			BreakdownByOperation: map[string]decimal.Decimal{
				"search":    decimal.RequireFromString("0.01"),
				"embedding": decimal.RequireFromString("0.0023"),
			},
			Citations: []research.CitationEntry{
				{Number: 1, DocumentID: "d1", Title: "Reef Report", Location: "https://example.org/reef"},
			},
			Success: true,
		}

		require.NoError(t, store.CreateSession(ctx, r))
		assert.NotEmpty(t, r.ID, "ID should be generated")

		got, err := store.FindSessionByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.Query, got.Query)
		assert.Equal(t, "online", got.Mode)
		assert.True(t, started.Equal(got.StartedAt))
		assert.Equal(t, 2500*time.Millisecond, got.Duration)
		assert.Equal(t, 3, got.DocumentsLoaded)
		assert.Equal(t, 1, got.Failures)
		assert.Equal(t, 812, got.AnswerLength)
		assert.True(t, got.SessionTotal.Equal(decimal.RequireFromString("0.0123")))
		assert.True(t, got.BreakdownByOperation["search"].Equal(decimal.RequireFromString("0.01")))
		assert.Equal(t, r.Citations, got.Citations)
		assert.True(t, got.Success)
	})

	t.Run("returns error for missing query", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewSessionStore(setupTestDB(t))

		err := store.CreateSession(context.Background(), &research.SessionRecord{})

		require.Error(t, err)
		assert.Equal(t, research.EINVALID, research.ErrorCode(err))
	})

	t.Run("rejects duplicate ID", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewSessionStore(setupTestDB(t))
		ctx := context.Background()
		require.NoError(t, store.CreateSession(ctx, &research.SessionRecord{ID: "s1", Query: "q"}))

		err := store.CreateSession(ctx, &research.SessionRecord{ID: "s1", Query: "q"})

		assert.Equal(t, research.EINVALID, research.ErrorCode(err))
	})
}

func TestSessionStore_FindSessionByID(t *testing.T) {
	t.Parallel()

	store := sqlite.NewSessionStore(setupTestDB(t))

	_, err := store.FindSessionByID(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, research.ENOTFOUND, research.ErrorCode(err))
}

func TestSessionStore_FindSessions(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T) *sqlite.SessionStore {
		t.Helper()
		store := sqlite.NewSessionStore(setupTestDB(t))
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, q := range []string{"coral", "ocean", "coral"} {
			require.NoError(t, store.CreateSession(context.Background(), &research.SessionRecord{
				Query:     q,
				StartedAt: base.Add(time.Duration(i) * time.Hour),
			}))
		}
		return store
	}

	t.Run("returns most recent first", func(t *testing.T) {
		t.Parallel()

		sessions, err := seed(t).FindSessions(context.Background(), research.SessionFilter{})

		require.NoError(t, err)
		require.Len(t, sessions, 3)
		assert.Equal(t, 2, sessions[0].StartedAt.Hour())
		assert.Equal(t, 0, sessions[2].StartedAt.Hour())
	})

	t.Run("filters by query", func(t *testing.T) {
		t.Parallel()

		q := "coral"
		sessions, err := seed(t).FindSessions(context.Background(), research.SessionFilter{Query: &q})

		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		store := seed(t)

		page, err := store.FindSessions(context.Background(), research.SessionFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "ocean", page[0].Query)

		rest, err := store.FindSessions(context.Background(), research.SessionFilter{Offset: 2})
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, 0, rest[0].StartedAt.Hour())
	})

	t.Run("empty store returns empty slice", func(t *testing.T) {
		t.Parallel()

		sessions, err := sqlite.NewSessionStore(setupTestDB(t)).FindSessions(context.Background(), research.SessionFilter{})

		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}
