// Package graftcli is the thin cobra command layer over pkg/resolve,
// pkg/mutate, pkg/query, and pkg/validate. It holds no engine logic: every
// command parses flags, loads (graft.yaml, graft.lock), calls one engine
// package, and renders the result — following cmd/gh-aw/main.go's
// thin-RunE-delegates-to-pkg/cli convention, narrowed to graft's own
// command set.
package graftcli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/graft-dev/graft/pkg/configparser"
	"github.com/graft-dev/graft/pkg/console"
	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/gitadapter"
	"github.com/graft-dev/graft/pkg/lockstore"
	"github.com/graft-dev/graft/pkg/logger"
	"github.com/graft-dev/graft/pkg/mutate"
)

var cliLog = logger.New("graftcli:context")

const (
	configFileName = "graft.yaml"
	lockFileName   = "graft.lock"
)

// findRepoRoot returns the root of the git repository containing the
// current directory.
func findRepoRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not in a git repository: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// dependenciesRoot resolves the dependencies root relative path: GRAFT_DEPS_DIR
// if set (spec.md §6.5), otherwise ".graft".
func dependenciesRoot() string {
	if v := strings.TrimSpace(os.Getenv("GRAFT_DEPS_DIR")); v != "" {
		return v
	}
	return ".graft"
}

// adapterFromEnv builds a gitadapter.Adapter honoring GRAFT_GIT_TIMEOUT_MS
// (spec.md §6.5) as both the status and network timeout override.
func adapterFromEnv() *gitadapter.Adapter {
	a := &gitadapter.Adapter{}
	v := strings.TrimSpace(os.Getenv("GRAFT_GIT_TIMEOUT_MS"))
	if v == "" {
		return a
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		cliLog.Printf("ignoring invalid GRAFT_GIT_TIMEOUT_MS=%q", v)
		return a
	}
	d := time.Duration(ms) * time.Millisecond
	a.StatusTimeout = d
	a.NetworkTimeout = d
	return a
}

// loadConfig reads and parses graft.yaml from repoRoot. The returned error,
// if any, is a *grafterr.ConfigError suitable for direct display or for
// `validate` to accumulate as a finding.
func loadConfig(repoRoot string) (domain.GraftConfig, error) {
	path := filepath.Join(repoRoot, configFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.GraftConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	return configparser.Parse(string(b), path)
}

// loadLock reads and parses graft.lock from repoRoot. A missing lock file
// is reported as an error rather than silently returning an empty lock:
// only `resolve` (via pkg/resolve) and the commands that use
// loadLockTolerant treat "no lock yet" as a distinct state.
// It first reconciles any snapshot left behind by an upgrade that was
// killed mid-flight, so every command sees a consistent lock.
func loadLock(repoRoot string) (domain.LockFile, error) {
	path := filepath.Join(repoRoot, lockFileName)
	reconcileInterrupted(path)
	return lockstore.ReadFile(path)
}

// loadLockTolerant is like loadLock but returns a zero LockFile instead of
// an error when the file simply does not exist yet, since several
// read-only commands (status, validate) should work before the first
// `resolve`.
func loadLockTolerant(repoRoot string) (domain.LockFile, error) {
	path := filepath.Join(repoRoot, lockFileName)
	reconcileInterrupted(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return domain.LockFile{}, nil
	}
	return lockstore.ReadFile(path)
}

// reconcileInterrupted restores graft.lock from a leftover upgrade snapshot,
// if one is present, and surfaces that it did so on stderr (spec.md §7):
// a silent restore would leave an operator wondering why their lock file
// just changed out from under them. Failure to reconcile is logged, not
// returned: every caller still has a usable (if possibly pre-upgrade) lock
// file to read afterward.
func reconcileInterrupted(lockPath string) {
	restored, err := mutate.ReconcileInterrupted(lockPath)
	if err != nil {
		cliLog.Printf("reconciling interrupted upgrade: %v", err)
		return
	}
	if restored {
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage("an interrupted upgrade was detected — restoring snapshot"))
	}
}

// dependencyConfigPath is where a resolved dependency's own graft.yaml
// lives on disk, once checked out under the dependencies root.
func dependencyConfigPath(repoRoot, name string) string {
	return filepath.Join(repoRoot, dependenciesRoot(), name, configFileName)
}

// loadDependencyConfig reads a resolved dependency's own graft.yaml from
// its checkout, used by `changes` and `show` (which operate on the
// declarations the dependency itself publishes, not the consumer's).
func loadDependencyConfig(repoRoot, name string) (domain.GraftConfig, error) {
	path := dependencyConfigPath(repoRoot, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.GraftConfig{}, fmt.Errorf("read %s: %w (has `graft resolve` been run?)", path, err)
	}
	return configparser.Parse(string(b), path)
}

// backgroundCtx is the root context.Context commands run under. A bare
// context.Background is sufficient here: cobra has no native cancellation
// hook, and the engine packages each apply their own operation-scoped
// timeouts internally.
func backgroundCtx() context.Context {
	return context.Background()
}
