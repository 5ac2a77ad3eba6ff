package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogTaskAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, input := range []string{"list files", "run cleanup.py", "organize downloads"} {
		_, err := s.LogTask(ctx, TaskRecord{
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			Input:      input,
			Action:     "list",
			Confidence: 0.8,
			Decision:   "execute",
		})
		require.NoError(t, err)
	}

	recent, err := s.RecentTasks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "organize downloads", recent[0].Input, "newest first")
	assert.Equal(t, "run cleanup.py", recent[1].Input)
	assert.NotEmpty(t, recent[0].ID)
}

func TestSetOutcome(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.LogTask(ctx, TaskRecord{Input: "delete junk.txt", Action: "delete", Decision: "confirm"})
	require.NoError(t, err)
	require.NoError(t, s.SetOutcome(ctx, id, "cancelled"))

	recent, err := s.RecentTasks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "cancelled", recent[0].Outcome)

	assert.Error(t, s.SetOutcome(ctx, "no-such-id", "done"))
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	_, err := s.LogTask(ctx, TaskRecord{CreatedAt: old, Input: "stale", Action: "list", Decision: "execute"})
	require.NoError(t, err)
	_, err = s.LogTask(ctx, TaskRecord{Input: "fresh", Action: "list", Decision: "execute"})
	require.NoError(t, err)

	n, err := s.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	recent, err := s.RecentTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].Input)
}

func TestSummaryCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.Summary(ctx, "README.md")
	require.NoError(t, err)
	assert.Nil(t, doc, "no cached summary yet")

	require.NoError(t, s.SaveSummary(ctx, "README.md", "first"))
	require.NoError(t, s.SaveSummary(ctx, "README.md", "second"))

	doc, err = s.Summary(ctx, "README.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "second", doc.Summary, "upsert replaces the summary")
	assert.False(t, doc.UpdatedAt.IsZero())
}
