package mutate

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/gitadapter"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/logger"
)

var fetchSyncLog = logger.New("mutate:fetchsync")

// FetchSyncOptions configures Fetch and Sync.
type FetchSyncOptions struct {
	DependenciesRoot string
	Adapter          *gitadapter.Adapter
}

func (o FetchSyncOptions) adapter() *gitadapter.Adapter {
	if o.Adapter != nil {
		return o.Adapter
	}
	return &gitadapter.Adapter{}
}

// OpOutcome is one dependency's fetch/sync outcome.
type OpOutcome struct {
	Name string
	Err  error
}

// Fetch updates remote-tracking refs for the named dependencies (all
// declared dependencies if names is empty). It makes no working-tree or
// lock changes. A name succeeds if its fetch succeeds; overall Fetch
// returns nil as long as at least one named dependency succeeded (spec.md
// §4.6), with per-dependency failures reported in the returned outcomes.
func Fetch(ctx context.Context, repoRoot string, cfg domain.GraftConfig, names []string, opts FetchSyncOptions) ([]OpOutcome, error) {
	a := opts.adapter()
	depsRel := depsRootRel(opts.DependenciesRoot)
	targets := targetNames(cfg, names)

	outcomes := make([]OpOutcome, 0, len(targets))
	succeeded := 0
	for _, name := range targets {
		path := dependencyPath(repoRoot, depsRel, name)
		err := a.Fetch(ctx, path, "origin")
		if err != nil {
			fetchSyncLog.Printf("fetch %s failed: %v", name, err)
		} else {
			succeeded++
		}
		outcomes = append(outcomes, OpOutcome{Name: name, Err: err})
	}

	if len(targets) > 0 && succeeded == 0 {
		return outcomes, fmt.Errorf("fetch failed for all %d dependencies", len(targets))
	}
	return outcomes, nil
}

// Sync brings each named dependency's checkout (all declared dependencies
// if names is empty) into agreement with lf: a no-op if already at the
// lock commit, otherwise a checkout. It is idempotent and handles three
// checkout states — registered submodule, legacy clone (warns, still
// syncs), and missing (reports and skips) — per spec.md §4.6.
func Sync(ctx context.Context, repoRoot string, cfg domain.GraftConfig, lf domain.LockFile, names []string, opts FetchSyncOptions) ([]OpOutcome, error) {
	a := opts.adapter()
	depsRel := depsRootRel(opts.DependenciesRoot)
	targets := targetNames(cfg, names)

	outcomes := make([]OpOutcome, 0, len(targets))
	for _, name := range targets {
		entry, ok := lf.Dependencies[name]
		if !ok {
			outcomes = append(outcomes, OpOutcome{Name: name, Err: &grafterr.DependencyNotFound{Name: name}})
			continue
		}
		path := dependencyPath(repoRoot, depsRel, name)

		isRepo, err := a.IsRepository(ctx, path)
		if err != nil || !isRepo {
			fetchSyncLog.Printf("sync %s: checkout missing, skipping", name)
			outcomes = append(outcomes, OpOutcome{Name: name, Err: &grafterr.ResolutionError{
				Name: name, Stage: "sync", Reason: "dependency directory is missing; run resolve first",
			}})
			continue
		}

		isSub, err := a.IsSubmodule(ctx, repoRoot, filepath.Join(depsRel, name))
		if err != nil {
			outcomes = append(outcomes, OpOutcome{Name: name, Err: err})
			continue
		}
		if !isSub {
			fetchSyncLog.Warnf("sync %s: legacy clone (not a registered submodule), syncing anyway", name)
		}

		head, err := a.CurrentCommit(ctx, path)
		if err != nil {
			outcomes = append(outcomes, OpOutcome{Name: name, Err: err})
			continue
		}
		if head.Equal(entry.Commit) {
			outcomes = append(outcomes, OpOutcome{Name: name})
			continue
		}
		if err := a.Checkout(ctx, path, entry.Commit); err != nil {
			outcomes = append(outcomes, OpOutcome{Name: name, Err: err})
			continue
		}
		outcomes = append(outcomes, OpOutcome{Name: name})
	}
	return outcomes, nil
}

func targetNames(cfg domain.GraftConfig, names []string) []string {
	if len(names) > 0 {
		return names
	}
	return cfg.SortedDependencyNames()
}
