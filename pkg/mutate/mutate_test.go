//go:build !integration

package mutate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepsRootRelDefault(t *testing.T) {
	assert.Equal(t, ".graft", depsRootRel(""))
	assert.Equal(t, "vendor/graft", depsRootRel("vendor/graft"))
}

func TestDependencyPath(t *testing.T) {
	got := dependencyPath("/repo", ".graft", "meta-kb")
	assert.Equal(t, filepath.Join("/repo", ".graft", "meta-kb"), got)
}

func TestSnapshotRoundTripWhenLockAbsent(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "graft.lock")

	snap, err := snapshotLock(lockPath)
	assert.NoError(t, err)
	assert.False(t, snap.existed)

	assert.NoError(t, snap.restore(lockPath))
	assert.NoFileExists(t, lockPath)
}

func TestReconcileInterruptedNoMarkerIsNoop(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "graft.lock")
	require.NoError(t, os.WriteFile(lockPath, []byte("apiVersion: graft/v0\n"), 0o644))

	restored, err := ReconcileInterrupted(lockPath)
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestReconcileInterruptedRestoresLeftoverMarker(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "graft.lock")
	original := "apiVersion: graft/v0\ndependencies:\n  upstream:\n    commit: aaaa\n"
	require.NoError(t, os.WriteFile(lockPath, []byte(original), 0o644))

	snap, err := snapshotLock(lockPath)
	require.NoError(t, err)
	require.True(t, snap.existed)

	require.NoError(t, os.WriteFile(lockPath, []byte("apiVersion: graft/v0\ndependencies: {}\n"), 0o644))

	restored, err := ReconcileInterrupted(lockPath)
	require.NoError(t, err)
	assert.True(t, restored)

	got, err := os.ReadFile(lockPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(got))

	_, err = os.Stat(snapshotPath(lockPath))
	assert.True(t, os.IsNotExist(err))
}
