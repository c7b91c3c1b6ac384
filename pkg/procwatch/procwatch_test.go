//go:build !integration

package procwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherNotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processes.toml")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	w, err := New(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[[processes]]\npid = 1\n"), 0o644))

	select {
	case <-w.Changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processes.toml")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	w, err := New(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-w.Changed:
		t.Fatal("did not expect a change notification for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}
