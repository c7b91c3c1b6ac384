// Package mutate implements the two operations that change a consumer's
// lock state: `apply` (lock-only, spec.md §4.5.1) and the atomic `upgrade`
// state machine (spec.md §4.5.2), plus `fetch`/`sync` (spec.md §4.6).
package mutate

import (
	"context"
	"time"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/gitadapter"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/lockstore"
	"github.com/graft-dev/graft/pkg/logger"
)

var mutateLog = logger.New("mutate:apply")

// ApplyOptions configures Apply.
type ApplyOptions struct {
	DependenciesRoot string
	LockPath         string
	Adapter          *gitadapter.Adapter
}

func (o ApplyOptions) adapter() *gitadapter.Adapter {
	if o.Adapter != nil {
		return o.Adapter
	}
	return &gitadapter.Adapter{}
}

// Apply changes the lock entry for name to ref without touching the
// dependency's working-tree checkout or running any migration/verify
// command (spec.md §4.5.1). The caller must run `sync` afterward to move
// the checkout to the new commit.
func Apply(ctx context.Context, repoRoot string, cfg domain.GraftConfig, lf domain.LockFile, name string, ref domain.GitRef, opts ApplyOptions) (domain.LockFile, error) {
	dep, ok := cfg.DependencyByName(name)
	if !ok {
		return domain.LockFile{}, &grafterr.DependencyNotFound{Name: name}
	}

	checkoutPath := dependencyPath(repoRoot, depsRootRel(opts.DependenciesRoot), name)
	a := opts.adapter()

	if ok, err := a.IsRepository(ctx, checkoutPath); err != nil || !ok {
		return domain.LockFile{}, &grafterr.ResolutionError{
			Name: name, Stage: "apply", Reason: "dependency directory does not exist; run resolve first",
		}
	}

	if err := a.Fetch(ctx, checkoutPath, "origin"); err != nil {
		mutateLog.Printf("apply %s: fetch failed (best-effort): %v", name, err)
	}

	commit, err := a.ResolveRef(ctx, checkoutPath, ref)
	if err != nil {
		return domain.LockFile{}, &grafterr.ResolutionError{Name: name, Stage: "resolve_ref", Reason: err.Error(), Err: err}
	}

	entry, err := domain.NewLockEntry(dep.Url, ref, commit, domain.NewTimestamp(time.Now()))
	if err != nil {
		return domain.LockFile{}, &grafterr.ResolutionError{Name: name, Stage: "apply", Reason: err.Error(), Err: err}
	}

	newEntries := make(map[string]domain.LockEntry, len(lf.Dependencies))
	for k, v := range lf.Dependencies {
		newEntries[k] = v
	}
	newEntries[name] = entry

	newLF, err := domain.NewLockFile(lf.ApiVersion, newEntries)
	if err != nil {
		return domain.LockFile{}, err
	}

	lockPath := opts.LockPath
	if lockPath == "" {
		lockPath = defaultLockPath(repoRoot)
	}
	if err := lockstore.Write(lockPath, newLF); err != nil {
		return domain.LockFile{}, err
	}
	mutateLog.Printf("apply %s -> %s (commit %s)", name, ref.String(), commit.String())
	return newLF, nil
}
