// Package resolve implements the resolution algorithm of spec.md §4.4: it
// brings every dependency declared in a GraftConfig onto disk as a
// submodule, resolves its declared ref to a commit, and writes a new lock
// file reflecting the outcome — atomically, and only if every dependency
// succeeded.
package resolve

import (
	"context"
	"path/filepath"
	"time"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/gitadapter"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/lockstore"
	"github.com/graft-dev/graft/pkg/logger"
)

var resolveLog = logger.New("resolve:resolve")

// Status classifies the outcome of resolving a single dependency.
type Status string

const (
	StatusCloned   Status = "cloned"
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
)

// Result is one dependency's resolution outcome.
type Result struct {
	Name   string
	Status Status
	Commit domain.CommitHash
	Err    error
}

// Options configures a resolve run.
type Options struct {
	// DependenciesRoot is where submodules are checked out, relative to
	// RepoRoot (a path git submodule records in .gitmodules). Defaults to
	// ".graft".
	DependenciesRoot string
	// LockPath is where the new lock file is written on full success.
	// Defaults to "<RepoRoot>/graft.lock".
	LockPath string
	Adapter  *gitadapter.Adapter
}

func (o Options) depsRootRel() string {
	if o.DependenciesRoot == "" {
		return ".graft"
	}
	return o.DependenciesRoot
}

func (o Options) lockPath(repoRoot string) string {
	if o.LockPath != "" {
		return o.LockPath
	}
	return filepath.Join(repoRoot, "graft.lock")
}

func (o Options) adapter() *gitadapter.Adapter {
	if o.Adapter != nil {
		return o.Adapter
	}
	return &gitadapter.Adapter{}
}

// Resolve walks cfg's dependencies in alphabetical order, bringing each onto
// disk under repoRoot and resolving its ref to a commit. It returns the
// per-dependency outcomes regardless of success; the lock file at
// opts.lockPath is written only if every dependency resolved cleanly.
func Resolve(ctx context.Context, repoRoot string, cfg domain.GraftConfig, opts Options) ([]Result, error) {
	a := opts.adapter()
	depsRootRel := opts.depsRootRel()

	results := make([]Result, 0, len(cfg.Dependencies))
	entries := make(map[string]domain.LockEntry, len(cfg.Dependencies))
	allSucceeded := true

	for _, name := range cfg.SortedDependencyNames() {
		dep, _ := cfg.DependencyByName(name)
		result := resolveOne(ctx, a, repoRoot, depsRootRel, dep)
		results = append(results, result)

		if result.Status == StatusFailed {
			allSucceeded = false
			resolveLog.Printf("dependency %s failed: %v", name, result.Err)
			continue
		}

		entry, err := domain.NewLockEntry(dep.Url, dep.Ref, result.Commit, domain.NewTimestamp(time.Now()))
		if err != nil {
			allSucceeded = false
			results[len(results)-1] = Result{Name: name, Status: StatusFailed, Err: err}
			continue
		}
		entries[name] = entry
	}

	if !allSucceeded {
		resolveLog.Print("at least one dependency failed; lock file left untouched")
		return results, nil
	}

	lf, err := domain.NewLockFile(cfg.ApiVersion, entries)
	if err != nil {
		return results, &grafterr.ResolutionError{Name: "*", Stage: "commit", Reason: err.Error(), Err: err}
	}
	if err := lockstore.Write(opts.lockPath(repoRoot), lf); err != nil {
		return results, err
	}
	resolveLog.Printf("wrote lock file for %d dependencies", len(entries))
	return results, nil
}

func resolveOne(ctx context.Context, a *gitadapter.Adapter, repoRoot, depsRootRel string, dep domain.DependencySpec) Result {
	subPath := filepath.Join(depsRootRel, dep.Name)
	checkoutPath := filepath.Join(repoRoot, subPath)
	status := StatusResolved

	isSub, err := a.IsSubmodule(ctx, repoRoot, subPath)
	if err != nil {
		return failResult(dep.Name, "is_submodule", err)
	}

	switch {
	case isSub:
		if err := a.UpdateSubmodule(ctx, repoRoot, subPath); err != nil {
			return failResult(dep.Name, "update_submodule", err)
		}
		if err := a.Fetch(ctx, checkoutPath, "origin"); err != nil {
			resolveLog.Printf("fetch for %s failed (non-fatal, best-effort): %v", dep.Name, err)
		}
	case pathIsRepo(ctx, a, checkoutPath):
		resolveLog.Warnf("%s exists as a legacy clone, not a registered submodule", dep.Name)
	default:
		ref := dep.Ref
		if err := a.AddSubmodule(ctx, repoRoot, dep.Url, subPath, &ref); err != nil {
			return failResult(dep.Name, "add_submodule", err)
		}
		status = StatusCloned
	}

	commit, err := a.ResolveRef(ctx, checkoutPath, dep.Ref)
	if err != nil {
		return failResult(dep.Name, "resolve_ref", err)
	}

	head, err := a.CurrentCommit(ctx, checkoutPath)
	if err != nil {
		return failResult(dep.Name, "current_commit", err)
	}
	if !head.Equal(commit) {
		if err := a.Checkout(ctx, checkoutPath, commit); err != nil {
			return failResult(dep.Name, "checkout", err)
		}
	}

	return Result{Name: dep.Name, Status: status, Commit: commit}
}

func pathIsRepo(ctx context.Context, a *gitadapter.Adapter, path string) bool {
	ok, err := a.IsRepository(ctx, path)
	return err == nil && ok
}

func failResult(name, stage string, err error) Result {
	return Result{Name: name, Status: StatusFailed, Err: &grafterr.ResolutionError{Name: name, Stage: stage, Reason: err.Error(), Err: err}}
}
