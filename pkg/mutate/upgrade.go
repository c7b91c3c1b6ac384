package mutate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/graft-dev/graft/pkg/cmdexec"
	"github.com/graft-dev/graft/pkg/configparser"
	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/gitadapter"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/lockstore"
	"github.com/graft-dev/graft/pkg/logger"
)

var upgradeLog = logger.New("mutate:upgrade")

// State identifies a step of the upgrade state machine (spec.md §4.5.2).
type State string

const (
	StatePlanning     State = "planning"
	StateSnapshotting State = "snapshotting"
	StateFetching     State = "fetching"
	StateResolving    State = "resolving"
	StateMigrating    State = "migrating"
	StateVerifying    State = "verifying"
	StateCommitting   State = "committing"
	StateDone         State = "done"
	StateRolledBack   State = "rolled_back"
	StateFailed       State = "failed"
)

// UpgradeOptions configures Upgrade.
type UpgradeOptions struct {
	DependenciesRoot string
	LockPath         string
	Adapter          *gitadapter.Adapter

	SkipMigration bool
	SkipVerify    bool
	Force         bool
	DryRun        bool

	// MigrationTimeout/VerifyTimeout bound each command's runtime. Zero
	// means no timeout, matching spec.md §4.7's default for user commands.
	MigrationTimeout time.Duration
	VerifyTimeout    time.Duration
}

func (o UpgradeOptions) adapter() *gitadapter.Adapter {
	if o.Adapter != nil {
		return o.Adapter
	}
	return &gitadapter.Adapter{}
}

// UpgradeResult reports the final state an Upgrade call reached and, for a
// dry run, the plan that would have executed.
type UpgradeResult struct {
	State  State
	Plan   []domain.Change
	Commit domain.CommitHash
}

// Upgrade runs the 7-step upgrade state machine for a single dependency
// against the target ref. On any failure in steps 3-6 it restores the lock
// file snapshot and the submodule's previously-consumed commit, returning
// UpgradeResult{State: StateRolledBack} alongside the error that triggered
// rollback. Only the lock file is snapshotted: other working-tree changes a
// migration made are not restored, and a rollback checkout that git refuses
// (local changes in the way) is logged and leaves the new commit checked out.
func Upgrade(ctx context.Context, repoRoot string, cfg domain.GraftConfig, lf domain.LockFile, name string, targetRef domain.GitRef, opts UpgradeOptions) (UpgradeResult, error) {
	a := opts.adapter()
	depsRel := depsRootRel(opts.DependenciesRoot)
	lockPath := opts.LockPath
	if lockPath == "" {
		lockPath = defaultLockPath(repoRoot)
	}

	// --- Planning ---
	dep, ok := cfg.DependencyByName(name)
	if !ok {
		return UpgradeResult{State: StateFailed}, &grafterr.DependencyNotFound{Name: name}
	}
	consumedEntry, ok := lf.Dependencies[name]
	if !ok {
		return UpgradeResult{State: StateFailed}, &grafterr.DependencyNotFound{Name: name}
	}
	checkoutPath := dependencyPath(repoRoot, depsRel, name)

	if !opts.Force {
		clean, err := a.WorkingTreeClean(ctx, checkoutPath)
		if err != nil {
			return UpgradeResult{State: StateFailed}, err
		}
		if !clean {
			return UpgradeResult{State: StateFailed}, &grafterr.DirtyTreeError{Name: name}
		}
	}

	targetCommit, err := a.ResolveRef(ctx, checkoutPath, targetRef)
	if err != nil {
		return UpgradeResult{State: StateFailed}, err
	}

	depCfg, planErr := loadDependencyConfigAt(ctx, a, checkoutPath, targetCommit)
	var plan []domain.Change
	if planErr == nil {
		plan, err = buildPlan(ctx, a, checkoutPath, depCfg, consumedEntry.Commit, targetCommit)
		if err != nil {
			upgradeLog.Printf("upgrade %s: could not order changes, proceeding with empty plan: %v", name, err)
			plan = nil
		}
	} else {
		upgradeLog.Printf("upgrade %s: dependency declares no graft.yaml at target commit, plan is empty: %v", name, planErr)
	}

	if opts.DryRun {
		upgradeLog.Printf("dry run: upgrade %s to %s would execute %d change(s)", name, targetRef.String(), len(plan))
		return UpgradeResult{State: StateDone, Plan: plan, Commit: targetCommit}, nil
	}

	// --- Snapshotting ---
	snapshot, err := snapshotLock(lockPath)
	if err != nil {
		return UpgradeResult{State: StateFailed}, fmt.Errorf("mutate: snapshot lock: %w", err)
	}
	defer snapshot.cleanup()

	rollback := func(cause error) (UpgradeResult, error) {
		upgradeLog.Printf("upgrade %s: rolling back after failure: %v", name, cause)
		if restoreErr := snapshot.restore(lockPath); restoreErr != nil {
			upgradeLog.Printf("upgrade %s: snapshot restore failed: %v", name, restoreErr)
		}
		if checkoutErr := a.Checkout(ctx, checkoutPath, consumedEntry.Commit); checkoutErr != nil {
			upgradeLog.Printf("upgrade %s: reverting checkout failed: %v", name, checkoutErr)
		}
		return UpgradeResult{State: StateRolledBack, Plan: plan}, cause
	}

	// --- Fetching ---
	if err := a.Fetch(ctx, checkoutPath, "origin"); err != nil {
		upgradeLog.Printf("upgrade %s: fetch failed, falling back to cached refs: %v", name, err)
	}

	// --- Resolving ---
	if err := a.Checkout(ctx, checkoutPath, targetCommit); err != nil {
		return rollback(&grafterr.ResolutionError{Name: name, Stage: "checkout", Reason: err.Error(), Err: err})
	}

	// --- Migrating ---
	if !opts.SkipMigration {
		for _, change := range plan {
			if change.Migration == "" {
				continue
			}
			cmd, ok := depCfg.CommandByName(change.Migration)
			if !ok {
				return rollback(fmt.Errorf("mutate: change %s references unknown migration command %q", change.Ref, change.Migration))
			}
			if _, err := cmdexec.Run(ctx, cmd, checkoutPath, cmdexec.Options{
				Repo: checkoutPath, Role: cmdexec.RoleMigration, Timeout: opts.MigrationTimeout,
			}); err != nil {
				return rollback(&grafterr.MigrationError{
					ChangeRef: change.Ref.String(), Phase: grafterr.PhaseMigrate, CommandName: change.Migration,
					ExitCode: extractExitCode(err), StderrTail: extractStderrTail(err),
				})
			}
		}
	}

	// --- Verifying ---
	if !opts.SkipVerify {
		for _, change := range plan {
			if change.Verify == "" {
				continue
			}
			cmd, ok := depCfg.CommandByName(change.Verify)
			if !ok {
				return rollback(fmt.Errorf("mutate: change %s references unknown verify command %q", change.Ref, change.Verify))
			}
			if _, err := cmdexec.Run(ctx, cmd, checkoutPath, cmdexec.Options{
				Repo: checkoutPath, Role: cmdexec.RoleVerify, Timeout: opts.VerifyTimeout,
			}); err != nil {
				return rollback(&grafterr.MigrationError{
					ChangeRef: change.Ref.String(), Phase: grafterr.PhaseVerify, CommandName: change.Verify,
					ExitCode: extractExitCode(err), StderrTail: extractStderrTail(err),
				})
			}
		}
	}

	// --- Committing ---
	entry, err := domain.NewLockEntry(dep.Url, targetRef, targetCommit, domain.NewTimestamp(time.Now()))
	if err != nil {
		return rollback(err)
	}
	newEntries := make(map[string]domain.LockEntry, len(lf.Dependencies))
	for k, v := range lf.Dependencies {
		newEntries[k] = v
	}
	newEntries[name] = entry
	newLF, err := domain.NewLockFile(lf.ApiVersion, newEntries)
	if err != nil {
		return rollback(err)
	}
	if err := lockstore.Write(lockPath, newLF); err != nil {
		return rollback(err)
	}

	upgradeLog.Printf("upgrade %s -> %s committed (commit %s)", name, targetRef.String(), targetCommit.String())
	return UpgradeResult{State: StateDone, Plan: plan, Commit: targetCommit}, nil
}

// loadDependencyConfigAt reads a dependency's graft.yaml as it exists at
// commit, via `git show`, so planning can inspect the target state before
// any checkout happens (needed for both ordering the plan and for dry-run,
// which must not mutate the working tree).
func loadDependencyConfigAt(ctx context.Context, a *gitadapter.Adapter, checkoutPath string, commit domain.CommitHash) (domain.GraftConfig, error) {
	text, err := a.ShowFile(ctx, checkoutPath, commit, "graft.yaml")
	if err != nil {
		return domain.GraftConfig{}, err
	}
	return configparser.Parse(text, filepath.Join(checkoutPath, "graft.yaml"))
}

// buildPlan returns depCfg's declared changes, in declaration order,
// restricted to those whose ref resolves to a commit on the first-parent
// path strictly after consumedCommit and at or before targetCommit.
func buildPlan(ctx context.Context, a *gitadapter.Adapter, checkoutPath string, depCfg domain.GraftConfig, consumedCommit, targetCommit domain.CommitHash) ([]domain.Change, error) {
	if len(depCfg.Changes) == 0 {
		return nil, nil
	}

	path, err := a.Log(ctx, checkoutPath, consumedCommit, targetCommit)
	if err != nil {
		return nil, err
	}
	inRange := make(map[string]bool, len(path))
	for _, h := range path {
		inRange[h.String()] = true
	}

	var plan []domain.Change
	for _, change := range depCfg.Changes {
		commit, err := a.ResolveRef(ctx, checkoutPath, change.Ref)
		if err != nil {
			upgradeLog.Printf("buildPlan: change %s's ref did not resolve, skipping: %v", change.Ref, err)
			continue
		}
		if inRange[commit.String()] {
			plan = append(plan, change)
		}
	}
	return plan, nil
}

func extractExitCode(err error) int {
	if ge, ok := err.(*grafterr.GitError); ok {
		return ge.ExitCode
	}
	return -1
}

func extractStderrTail(err error) string {
	if ge, ok := err.(*grafterr.GitError); ok {
		return ge.StderrTail
	}
	return err.Error()
}
