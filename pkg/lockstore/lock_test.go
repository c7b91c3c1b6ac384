//go:build !integration

package lockstore

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLockFile(t *testing.T) domain.LockFile {
	t.Helper()
	ts := domain.NewTimestamp(time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC))

	entries := map[string]domain.LockEntry{}
	for name, hashChar := range map[string]string{"zeta": "b", "alpha": "a", "meta-kb": "c"} {
		url, err := domain.NewGitUrl("https://example.com/" + name + ".git")
		require.NoError(t, err)
		ref, err := domain.NewGitRef("main")
		require.NoError(t, err)
		commit, err := domain.NewCommitHash(strings.Repeat(hashChar, 40))
		require.NoError(t, err)
		entry, err := domain.NewLockEntry(url, ref, commit, ts)
		require.NoError(t, err)
		entries[name] = entry
	}

	lf, err := domain.NewLockFile("graft/v0", entries)
	require.NoError(t, err)
	return lf
}

func TestMarshalOrdersDependenciesAlphabetically(t *testing.T) {
	lf := buildLockFile(t)
	b, err := Marshal(lf)
	require.NoError(t, err)

	text := string(b)
	iAlpha := strings.Index(text, "alpha:")
	iMeta := strings.Index(text, "meta-kb:")
	iZeta := strings.Index(text, "zeta:")
	require.True(t, iAlpha >= 0 && iMeta >= 0 && iZeta >= 0)
	assert.Less(t, iAlpha, iMeta)
	assert.Less(t, iMeta, iZeta)
}

func TestMarshalOrdersEntryFields(t *testing.T) {
	lf := buildLockFile(t)
	b, err := Marshal(lf)
	require.NoError(t, err)

	text := string(b)
	idx := strings.Index(text, "alpha:")
	require.GreaterOrEqual(t, idx, 0)
	section := text[idx:]
	iSource := strings.Index(section, "source:")
	iRef := strings.Index(section, "ref:")
	iCommit := strings.Index(section, "commit:")
	iConsumed := strings.Index(section, "consumed_at:")
	require.True(t, iSource >= 0 && iRef >= 0 && iCommit >= 0 && iConsumed >= 0)
	assert.Less(t, iSource, iRef)
	assert.Less(t, iRef, iCommit)
	assert.Less(t, iCommit, iConsumed)
}

func TestRoundTrip(t *testing.T) {
	lf := buildLockFile(t)
	b, err := Marshal(lf)
	require.NoError(t, err)

	parsed, err := Parse(string(b), "")
	require.NoError(t, err)
	assert.True(t, lf.Equal(parsed))
}

func TestRoundTripIndependentOfInsertionOrder(t *testing.T) {
	lf1 := buildLockFile(t)

	// Build an equal LockFile via a differently-ordered map literal.
	entries := map[string]domain.LockEntry{}
	for name, entry := range lf1.Dependencies {
		entries[name] = entry
	}
	lf2, err := domain.NewLockFile(lf1.ApiVersion, entries)
	require.NoError(t, err)

	b1, err := Marshal(lf1)
	require.NoError(t, err)
	b2, err := Marshal(lf2)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}

func TestWriteIsAtomicAndReadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graft.lock")
	lf := buildLockFile(t)

	require.NoError(t, Write(path, lf))

	read, err := ReadFile(path)
	require.NoError(t, err)
	assert.True(t, lf.Equal(read))

	// No leftover temp files after a successful write.
	entries, err := filepathGlobTmp(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func filepathGlobTmp(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, ".graft.lock.*.tmp"))
}

func TestParseRejectsBadCommitHash(t *testing.T) {
	text := `
apiVersion: graft/v0
dependencies:
  meta-kb:
    source: https://example.com/meta.git
    ref: main
    commit: "short"
    consumed_at: "2026-07-29T12:00:00Z"
`
	_, err := Parse(text, "")
	require.Error(t, err)
}
