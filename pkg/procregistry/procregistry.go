// Package procregistry tracks every subprocess cmdexec has spawned, so a
// front-end or another graft invocation can enumerate in-flight migrations,
// verifications, and user commands (spec.md §4.7's process registry,
// Testable Property 10).
//
// The registry is one TOML file per user, in the style of
// internal/config.Config.Load's toml.DecodeFile (emergent-company-specmcp).
// There is no cross-process lock: every write re-reads, mutates, and
// rewrites the whole file, which is acceptable because spec.md's shared
// resource policy assumes a single writer per repo and treats concurrent
// engine invocations against the same repo as undefined behavior.
package procregistry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/graft-dev/graft/pkg/logger"
)

var registryLog = logger.New("procregistry:procregistry")

// Entry describes one spawned process.
type Entry struct {
	PID       int       `toml:"pid"`
	Repo      string    `toml:"repo"`
	Role      string    `toml:"role"`
	StartedAt time.Time `toml:"started_at"`
	LogPath   string    `toml:"log_path"`
}

type registryFile struct {
	Processes []Entry `toml:"processes"`
}

// mu serializes registry file access within this process; it does not
// protect against concurrent writers in other processes (see package doc).
var mu sync.Mutex

// pathOverride lets tests point the registry at a throwaway file.
var pathOverride string

// SetPathForTest overrides the registry file path. Test-only.
func SetPathForTest(path string) { pathOverride = path }

// DefaultPath returns the registry file location under the user's cache
// directory: "<UserCacheDir>/graft/processes.toml".
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("procregistry: resolve cache dir: %w", err)
	}
	return filepath.Join(dir, "graft", "processes.toml"), nil
}

// Register adds e to the registry, pruning stale (dead-PID) entries first.
func Register(e Entry) error {
	mu.Lock()
	defer mu.Unlock()

	path, err := DefaultPath()
	if err != nil {
		return err
	}
	reg, err := load(path)
	if err != nil {
		return err
	}
	reg.Processes = pruneDead(reg.Processes)
	reg.Processes = append(reg.Processes, e)
	registryLog.Printf("registering pid %d (role=%s repo=%s)", e.PID, e.Role, e.Repo)
	return save(path, reg)
}

// Deregister removes the entry for pid, if present.
func Deregister(pid int) error {
	mu.Lock()
	defer mu.Unlock()

	path, err := DefaultPath()
	if err != nil {
		return err
	}
	reg, err := load(path)
	if err != nil {
		return err
	}
	kept := reg.Processes[:0]
	for _, p := range reg.Processes {
		if p.PID != pid {
			kept = append(kept, p)
		}
	}
	reg.Processes = kept
	registryLog.Printf("deregistering pid %d", pid)
	return save(path, reg)
}

// List returns all live entries, pruning dead PIDs as a side effect.
func List() ([]Entry, error) {
	mu.Lock()
	defer mu.Unlock()

	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	reg, err := load(path)
	if err != nil {
		return nil, err
	}
	live := pruneDead(reg.Processes)
	if len(live) != len(reg.Processes) {
		if err := save(path, registryFile{Processes: live}); err != nil {
			registryLog.Printf("failed to persist pruned registry: %v", err)
		}
	}
	return live, nil
}

func load(path string) (registryFile, error) {
	var reg registryFile
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return reg, nil
	}
	if _, err := toml.DecodeFile(path, &reg); err != nil {
		return registryFile{}, fmt.Errorf("procregistry: decode %s: %w", path, err)
	}
	return reg, nil
}

func save(path string, reg registryFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("procregistry: create registry dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".processes.*.tmp")
	if err != nil {
		return fmt.Errorf("procregistry: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := toml.NewEncoder(tmp).Encode(reg); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("procregistry: encode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("procregistry: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("procregistry: close: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// pruneDead drops entries whose PID no longer corresponds to a live
// process, per spec.md §4.7 ("stale entries ... pruned on read").
func pruneDead(entries []Entry) []Entry {
	live := entries[:0]
	for _, e := range entries {
		if processAlive(e.PID) {
			live = append(live, e)
		} else {
			registryLog.Printf("pruning stale entry for dead pid %d", e.PID)
		}
	}
	return live
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; signal 0 probes liveness
	// without affecting the process.
	// EPERM means the process exists but belongs to another user.
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
