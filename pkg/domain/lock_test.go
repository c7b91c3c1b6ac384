//go:build !integration

package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustCommit(t *testing.T, s string) CommitHash {
	t.Helper()
	c, err := NewCommitHash(s)
	require.NoError(t, err)
	return c
}

func TestLockFileEqualIgnoresMapOrder(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC))
	entryA, err := NewLockEntry(mustUrl(t, "https://example.com/a.git"), mustRef(t, "main"), mustCommit(t, strings.Repeat("a", 40)), ts)
	require.NoError(t, err)
	entryB, err := NewLockEntry(mustUrl(t, "https://example.com/b.git"), mustRef(t, "main"), mustCommit(t, strings.Repeat("b", 40)), ts)
	require.NoError(t, err)

	lf1, err := NewLockFile("graft/v0", map[string]LockEntry{"a": entryA, "b": entryB})
	require.NoError(t, err)
	lf2, err := NewLockFile("graft/v0", map[string]LockEntry{"b": entryB, "a": entryA})
	require.NoError(t, err)

	require.True(t, lf1.Equal(lf2))
	require.Equal(t, []string{"a", "b"}, lf1.SortedNames())
}

func TestNewLockEntryRequiresAllFields(t *testing.T) {
	ts := NewTimestamp(time.Now())
	_, err := NewLockEntry(GitUrl{}, mustRef(t, "main"), mustCommit(t, strings.Repeat("a", 40)), ts)
	require.Error(t, err)
}
