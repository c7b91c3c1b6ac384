// Package lockstore parses and serializes graft.lock documents.
//
// Serialization is a pure function of the in-memory LockFile (spec.md §4.2):
// dependencies are alphabetized by name and each entry's fields are emitted
// in a fixed order (source, ref, commit, consumed_at), using a
// yaml.MapSlice the way pkg/workflow/agentic_engine.go builds ordered
// mappings for deterministic YAML output. Writes are atomic: a temp file in
// the same directory, fsync'd, then renamed over the target.
package lockstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/logger"
	"github.com/goccy/go-yaml"
)

var lockLog = logger.New("lockstore:lock")

// entryDoc mirrors graft.lock's per-dependency field order.
type entryDoc struct {
	Source     string `yaml:"source"`
	Ref        string `yaml:"ref"`
	Commit     string `yaml:"commit"`
	ConsumedAt string `yaml:"consumed_at"`
}

type lockDoc struct {
	ApiVersion   string        `yaml:"apiVersion"`
	Dependencies yaml.MapSlice `yaml:"dependencies"`
}

// Parse parses graft.lock document text into a LockFile. Dependencies may
// appear in any order in the source text (Postel's law); order is reimposed
// only on Write.
func Parse(text string, sourcePath string) (domain.LockFile, error) {
	lockLog.Printf("parsing lock from %s", displayPath(sourcePath))

	var raw struct {
		ApiVersion   string                  `yaml:"apiVersion"`
		Dependencies map[string]entryDoc     `yaml:"dependencies"`
	}
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return domain.LockFile{}, &grafterr.LockError{Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if raw.ApiVersion == "" {
		return domain.LockFile{}, &grafterr.LockError{Reason: "apiVersion must not be empty"}
	}

	entries := make(map[string]domain.LockEntry, len(raw.Dependencies))
	for name, e := range raw.Dependencies {
		entry, err := toDomainEntry(e)
		if err != nil {
			return domain.LockFile{}, &grafterr.LockError{Reason: fmt.Sprintf("dependencies.%s: %v", name, err)}
		}
		entries[name] = entry
	}

	lf, err := domain.NewLockFile(raw.ApiVersion, entries)
	if err != nil {
		return domain.LockFile{}, &grafterr.LockError{Reason: err.Error()}
	}
	return lf, nil
}

func toDomainEntry(e entryDoc) (domain.LockEntry, error) {
	source, err := domain.NewGitUrl(e.Source)
	if err != nil {
		return domain.LockEntry{}, err
	}
	ref, err := domain.NewGitRef(e.Ref)
	if err != nil {
		return domain.LockEntry{}, err
	}
	commit, err := domain.NewCommitHash(e.Commit)
	if err != nil {
		return domain.LockEntry{}, err
	}
	consumedAt, err := domain.ParseTimestamp(e.ConsumedAt)
	if err != nil {
		return domain.LockEntry{}, err
	}
	return domain.NewLockEntry(source, ref, commit, consumedAt)
}

// Marshal serializes a LockFile into its canonical byte form: apiVersion
// first, dependencies alphabetized by name, each entry's fields in
// source/ref/commit/consumed_at order.
func Marshal(lf domain.LockFile) ([]byte, error) {
	names := lf.SortedNames()
	deps := make(yaml.MapSlice, 0, len(names))
	for _, name := range names {
		e := lf.Dependencies[name]
		deps = append(deps, yaml.MapItem{
			Key: name,
			Value: entryDoc{
				Source:     e.Source.String(),
				Ref:        e.Ref.String(),
				Commit:     e.Commit.String(),
				ConsumedAt: e.ConsumedAt.String(),
			},
		})
	}

	doc := lockDoc{ApiVersion: lf.ApiVersion, Dependencies: deps}
	b, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal lock file: %w", err)
	}
	return b, nil
}

// Write atomically persists lf to path: the document is written to a
// sibling temp file, fsync'd, and renamed over path. On any failure before
// the rename, path is left untouched (spec.md §4.2).
func Write(path string, lf domain.LockFile) error {
	b, err := Marshal(lf)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".graft.lock.*.tmp")
	if err != nil {
		return &grafterr.LockError{Reason: fmt.Sprintf("create temp lock file: %v", err)}
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return &grafterr.LockError{Reason: fmt.Sprintf("write temp lock file: %v", err)}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &grafterr.LockError{Reason: fmt.Sprintf("fsync temp lock file: %v", err)}
	}
	if err := tmp.Close(); err != nil {
		return &grafterr.LockError{Reason: fmt.Sprintf("close temp lock file: %v", err)}
	}

	lockLog.Printf("renaming %s -> %s", tmpPath, path)
	if err := os.Rename(tmpPath, path); err != nil {
		return &grafterr.LockError{Reason: fmt.Sprintf("rename lock file into place: %v", err)}
	}
	return nil
}

// ReadFile reads and parses the lock file at path.
func ReadFile(path string) (domain.LockFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.LockFile{}, &grafterr.LockError{Reason: fmt.Sprintf("read %s: %v", path, err)}
	}
	return Parse(string(b), path)
}

func displayPath(sourcePath string) string {
	if sourcePath == "" {
		return "graft.lock"
	}
	return sourcePath
}
