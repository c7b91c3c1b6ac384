package mutate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/graft-dev/graft/pkg/fileutil"
)

// lockSnapshot is a restorable copy of a lock file taken before a mutation
// that might fail partway through (spec.md §4.5.2 step 2). It is a content
// copy under a temp path, restored by copy-back-and-rename so the restore
// itself is atomic.
type lockSnapshot struct {
	tempPath string
	existed  bool
}

// snapshotPath is the deterministic (not randomly named) sibling of lockPath
// a lockSnapshot is written to. It is deliberately predictable rather than
// going through os.CreateTemp: a crash mid-upgrade (kill -9, power loss)
// must leave something ReconcileInterrupted can find on the next graft
// invocation, which a random suffix would defeat.
func snapshotPath(lockPath string) string {
	return filepath.Join(filepath.Dir(lockPath), ".graft.lock.snapshot")
}

// snapshotLock copies the file at lockPath (if it exists) to its
// snapshotPath sibling. A lock file that does not yet exist (first-ever
// upgrade) snapshots to "absent", and restore removes whatever rollback
// finds there.
func snapshotLock(lockPath string) (*lockSnapshot, error) {
	tmpPath := snapshotPath(lockPath)
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		return &lockSnapshot{tempPath: tmpPath, existed: false}, nil
	}

	if err := fileutil.CopyFile(lockPath, tmpPath); err != nil {
		return nil, fmt.Errorf("copy lock file to snapshot: %w", err)
	}
	return &lockSnapshot{tempPath: tmpPath, existed: true}, nil
}

// restore writes the snapshot back over lockPath via the same atomic
// temp+rename discipline pkg/lockstore.Write uses.
func (s *lockSnapshot) restore(lockPath string) error {
	if !s.existed {
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	dir := filepath.Dir(lockPath)
	tmp, err := os.CreateTemp(dir, ".graft.lock.restore.*.tmp")
	if err != nil {
		return fmt.Errorf("create restore temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := fileutil.CopyFile(s.tempPath, tmpPath); err != nil {
		return fmt.Errorf("copy snapshot into restore temp: %w", err)
	}
	return os.Rename(tmpPath, lockPath)
}

func (s *lockSnapshot) cleanup() {
	if s.tempPath != "" {
		_ = os.Remove(s.tempPath)
	}
}

// ReconcileInterrupted restores lockPath from a leftover snapshot marker, if
// one is present. A marker only ever survives to be found here if a prior
// `upgrade` was killed (process killed, machine powered off) between
// snapshotting and its own cleanup — every normal exit path, success or
// rollback, removes the marker itself. Callers run this once before any
// mutating operation (spec.md §7, §9 Open Question 1); it reports whether it
// found and restored a marker so the caller can surface that to the user.
func ReconcileInterrupted(lockPath string) (bool, error) {
	marker := snapshotPath(lockPath)
	if _, err := os.Stat(marker); os.IsNotExist(err) {
		return false, nil
	}

	snap := &lockSnapshot{tempPath: marker, existed: true}
	if err := snap.restore(lockPath); err != nil {
		return false, fmt.Errorf("mutate: restore interrupted-upgrade snapshot: %w", err)
	}
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		return true, fmt.Errorf("mutate: remove snapshot marker after restore: %w", err)
	}
	return true, nil
}
