// Package query implements the read-only reporting operations of spec.md
// §4.8: status, changes, and show. Every function here is pure over a
// (GraftConfig, LockFile) pair plus, for status's --check-updates and
// changes's --from/--to ordering, read-only calls through a gitadapter.Adapter.
// Nothing here mutates the lock file, the config, or the working tree.
package query

import (
	"context"
	"fmt"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/gitadapter"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/logger"
)

var queryLog = logger.New("query:query")

// StatusEntry is one dependency's row in `graft status` output.
type StatusEntry struct {
	Name          string
	Source        domain.GitUrl
	ConsumedRef   domain.GitRef
	ConsumedCommit domain.CommitHash
	ConsumedAt    domain.Timestamp
	// LatestCommit is set only when StatusOptions.CheckUpdates is true and
	// the remote tip resolved successfully.
	LatestCommit domain.CommitHash
	// UpdateCheckErr carries a non-fatal failure to resolve the remote tip;
	// it does not fail the whole status call.
	UpdateCheckErr error
}

// StatusOptions configures Status.
type StatusOptions struct {
	// CheckUpdates, when true, resolves each dependency's remote tip (the
	// ref it was declared against, re-resolved against origin) in addition
	// to its consumed state.
	CheckUpdates bool
	// DependenciesRoot mirrors pkg/mutate's, needed only when CheckUpdates
	// requires reading a checkout on disk. Defaults to ".graft".
	DependenciesRoot string
	Adapter          *gitadapter.Adapter
}

func (o StatusOptions) adapter() *gitadapter.Adapter {
	if o.Adapter != nil {
		return o.Adapter
	}
	return &gitadapter.Adapter{}
}

func (o StatusOptions) depsRootRel() string {
	if o.DependenciesRoot == "" {
		return ".graft"
	}
	return o.DependenciesRoot
}

// Status reports the consumed state of every dependency declared in cfg, in
// alphabetical order by name; lock entries with no declaration in cfg are
// not reported. Dependencies declared in cfg but absent from lf (never
// resolved) carry the source and ref from cfg and a zero commit and time.
func Status(ctx context.Context, repoRoot string, cfg domain.GraftConfig, lf domain.LockFile, opts StatusOptions) []StatusEntry {
	entries := make([]StatusEntry, 0, len(cfg.Dependencies))
	for _, name := range cfg.SortedDependencyNames() {
		dep, _ := cfg.DependencyByName(name)
		entry := lf.Dependencies[name]

		se := StatusEntry{
			Name:           name,
			Source:         entry.Source,
			ConsumedRef:    entry.Ref,
			ConsumedCommit: entry.Commit,
			ConsumedAt:     entry.ConsumedAt,
		}
		if se.Source.IsZero() {
			se.Source = dep.Url
		}
		if se.ConsumedRef.IsZero() {
			se.ConsumedRef = dep.Ref
		}

		if opts.CheckUpdates {
			se.LatestCommit, se.UpdateCheckErr = latestCommit(ctx, opts, repoRoot, dep)
			if se.UpdateCheckErr != nil {
				queryLog.Printf("status %s: --check-updates failed: %v", name, se.UpdateCheckErr)
			}
		}
		entries = append(entries, se)
	}
	return entries
}

func latestCommit(ctx context.Context, opts StatusOptions, repoRoot string, dep domain.DependencySpec) (domain.CommitHash, error) {
	a := opts.adapter()
	path := repoRoot + "/" + opts.depsRootRel() + "/" + dep.Name
	if err := a.Fetch(ctx, path, "origin"); err != nil {
		queryLog.Printf("status %s: fetch before --check-updates failed, resolving from cached refs: %v", dep.Name, err)
	}
	return a.ResolveRef(ctx, path, dep.Ref)
}

// ChangesOptions filters the result of Changes.
type ChangesOptions struct {
	Type     domain.ChangeType // zero means "any type"
	Breaking bool              // true restricts to ChangeBreaking regardless of Type
	From, To *domain.GitRef    // order-range filter; both nil means "no range filter"

	// DependenciesRoot/Adapter are needed only when From/To are set, since
	// ordering requires walking the dependency's own commit history.
	DependenciesRoot string
	Adapter          *gitadapter.Adapter
}

func (o ChangesOptions) adapter() *gitadapter.Adapter {
	if o.Adapter != nil {
		return o.Adapter
	}
	return &gitadapter.Adapter{}
}

func (o ChangesOptions) depsRootRel() string {
	if o.DependenciesRoot == "" {
		return ".graft"
	}
	return o.DependenciesRoot
}

// Changes lists depCfg's declared changes for dependency name, in
// declaration order, subject to type/breaking/range filters. When a
// From/To range is requested but the dependency's checkout is unavailable
// or its refs do not resolve, the unfiltered declared list is returned
// along with a non-nil limitation error describing why range filtering was
// skipped — the caller decides whether to surface that as a warning.
func Changes(ctx context.Context, repoRoot string, cfg domain.GraftConfig, name string, depCfg domain.GraftConfig, opts ChangesOptions) ([]domain.Change, error) {
	if _, ok := cfg.DependencyByName(name); !ok {
		return nil, &grafterr.DependencyNotFound{Name: name}
	}

	filtered := make([]domain.Change, 0, len(depCfg.Changes))
	for _, c := range depCfg.Changes {
		if opts.Breaking && c.Type != domain.ChangeBreaking {
			continue
		}
		if opts.Type != "" && c.Type != opts.Type {
			continue
		}
		filtered = append(filtered, c)
	}

	if opts.From == nil && opts.To == nil {
		return filtered, nil
	}

	ranged, err := rangeFilter(ctx, repoRoot, name, filtered, opts)
	if err != nil {
		queryLog.Printf("changes %s: range ordering unavailable, returning unfiltered declared list: %v", name, err)
		return filtered, fmt.Errorf("changes %s: could not order by first-parent history (%w); returned declared list unfiltered by --from/--to", name, err)
	}
	return ranged, nil
}

func rangeFilter(ctx context.Context, repoRoot, name string, changes []domain.Change, opts ChangesOptions) ([]domain.Change, error) {
	a := opts.adapter()
	path := repoRoot + "/" + opts.depsRootRel() + "/" + name

	var from domain.CommitHash
	if opts.From != nil {
		c, err := a.ResolveRef(ctx, path, *opts.From)
		if err != nil {
			return nil, err
		}
		from = c
	}
	to := from
	if opts.To != nil {
		c, err := a.ResolveRef(ctx, path, *opts.To)
		if err != nil {
			return nil, err
		}
		to = c
	} else {
		head, err := a.CurrentCommit(ctx, path)
		if err != nil {
			return nil, err
		}
		to = head
	}

	hashes, err := a.Log(ctx, path, from, to)
	if err != nil {
		return nil, err
	}
	inRange := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		inRange[h.String()] = true
	}

	var out []domain.Change
	for _, c := range changes {
		commit, err := a.ResolveRef(ctx, path, c.Ref)
		if err != nil {
			queryLog.Printf("changes %s: change %s's ref did not resolve, excluding from range: %v", name, c.Ref, err)
			continue
		}
		if inRange[commit.String()] {
			out = append(out, c)
		}
	}
	return out, nil
}

// ShowResult is the full record returned by Show: the declared change plus
// its resolved migration/verify commands, when named.
type ShowResult struct {
	Change    domain.Change
	Migration *domain.Command
	Verify    *domain.Command
}

// Show returns the change ref declares in depCfg, plus its migration/verify
// Command records resolved by name. Errors if ref is not declared.
func Show(depCfg domain.GraftConfig, ref domain.GitRef) (ShowResult, error) {
	change, ok := depCfg.ChangeByRef(ref.String())
	if !ok {
		return ShowResult{}, &grafterr.ChangeNotFound{Ref: ref.String()}
	}

	result := ShowResult{Change: change}
	if change.Migration != "" {
		cmd, ok := depCfg.CommandByName(change.Migration)
		if !ok {
			return ShowResult{}, fmt.Errorf("query: change %s references unknown migration command %q", ref, change.Migration)
		}
		result.Migration = &cmd
	}
	if change.Verify != "" {
		cmd, ok := depCfg.CommandByName(change.Verify)
		if !ok {
			return ShowResult{}, fmt.Errorf("query: change %s references unknown verify command %q", ref, change.Verify)
		}
		result.Verify = &cmd
	}
	return result, nil
}
