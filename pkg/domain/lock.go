package domain

import (
	"fmt"
	"sort"
	"strings"
)

// LockEntry is the consumed state of one dependency: the source it was
// consumed from, the ref that was requested, the commit it resolved to, and
// when it was consumed.
type LockEntry struct {
	Source     GitUrl
	Ref        GitRef
	Commit     CommitHash
	ConsumedAt Timestamp
}

// NewLockEntry validates and constructs a LockEntry.
func NewLockEntry(source GitUrl, ref GitRef, commit CommitHash, consumedAt Timestamp) (LockEntry, error) {
	if source.IsZero() {
		return LockEntry{}, fmt.Errorf("lock entry: source must not be empty")
	}
	if ref.IsZero() {
		return LockEntry{}, fmt.Errorf("lock entry: ref must not be empty")
	}
	if commit.IsZero() {
		return LockEntry{}, fmt.Errorf("lock entry: commit must not be empty")
	}
	if consumedAt.IsZero() {
		return LockEntry{}, fmt.Errorf("lock entry: consumed_at must not be empty")
	}
	return LockEntry{Source: source, Ref: ref, Commit: commit, ConsumedAt: consumedAt}, nil
}

// LockFile is the parsed graft.lock document: one LockEntry per dependency
// name. Dependencies is a plain map; ordering is reimposed at serialization
// time by pkg/lockstore (spec.md §4.2's alphabetical ordering law), never
// carried as part of the in-memory representation.
type LockFile struct {
	ApiVersion   string
	Dependencies map[string]LockEntry
}

// NewLockFile validates and constructs a LockFile. api_version shape mirrors
// GraftConfig's (must begin with "graft/"); per-entry validation is the
// caller's responsibility via NewLockEntry.
func NewLockFile(apiVersion string, entries map[string]LockEntry) (LockFile, error) {
	if apiVersion == "" {
		return LockFile{}, fmt.Errorf("lock apiVersion must not be empty")
	}
	if !strings.HasPrefix(apiVersion, "graft/") {
		return LockFile{}, fmt.Errorf("lock apiVersion %q must begin with \"graft/\"", apiVersion)
	}
	copied := make(map[string]LockEntry, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return LockFile{ApiVersion: apiVersion, Dependencies: copied}, nil
}

// SortedNames returns dependency names in ASCII alphabetical order — the
// order pkg/lockstore emits them in on write (spec.md §4.2, §8 Invariant 1).
func (l LockFile) SortedNames() []string {
	names := make([]string, 0, len(l.Dependencies))
	for n := range l.Dependencies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether two lock files carry the same api_version and the
// same entries, independent of any in-memory map iteration order — the
// round-trip law (spec.md §8 Invariant 1) is stated in terms of this
// equality, not byte-for-byte struct comparison.
func (l LockFile) Equal(other LockFile) bool {
	if l.ApiVersion != other.ApiVersion {
		return false
	}
	if len(l.Dependencies) != len(other.Dependencies) {
		return false
	}
	for name, entry := range l.Dependencies {
		o, ok := other.Dependencies[name]
		if !ok {
			return false
		}
		if !entry.Source.Equal(o.Source) || !entry.Ref.Equal(o.Ref) || !entry.Commit.Equal(o.Commit) || entry.ConsumedAt.String() != o.ConsumedAt.String() {
			return false
		}
	}
	return true
}
