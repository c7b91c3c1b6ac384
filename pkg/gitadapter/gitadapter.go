// Package gitadapter is a narrow wrapper around the local git binary: the
// only surface pkg/resolve and pkg/mutate use to touch a repository.
//
// Every call shells out with a bounded timeout and an explicit environment
// (no ambient globals leak in), following the subprocess discipline of
// pkg/workflow/docker_validation.go's daemon probe and
// pkg/workflow/git_helpers.go's RunGit helpers. Non-zero exit becomes a
// structured grafterr.GitError carrying argv, exit code, and a trimmed
// stderr tail.
package gitadapter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/logger"
	"github.com/graft-dev/graft/pkg/stringutil"
)

var gitLog = logger.New("gitadapter:gitadapter")

// DefaultStatusTimeout bounds quick, read-only git invocations.
const DefaultStatusTimeout = 5 * time.Second

// DefaultNetworkTimeout bounds fetch/clone-class invocations.
const DefaultNetworkTimeout = 60 * time.Second

const stderrTailLines = 20

// Adapter executes git operations against repositories on disk. The zero
// value is ready to use.
type Adapter struct {
	// StatusTimeout overrides DefaultStatusTimeout when non-zero.
	StatusTimeout time.Duration
	// NetworkTimeout overrides DefaultNetworkTimeout when non-zero.
	NetworkTimeout time.Duration
}

func (a *Adapter) statusTimeout() time.Duration {
	if a.StatusTimeout > 0 {
		return a.StatusTimeout
	}
	return DefaultStatusTimeout
}

func (a *Adapter) networkTimeout() time.Duration {
	if a.NetworkTimeout > 0 {
		return a.NetworkTimeout
	}
	return DefaultNetworkTimeout
}

// run executes `git <args...>` in dir with a bounded timeout and an
// explicitly inherited environment. stdout and stderr are captured
// separately.
func (a *Adapter) run(ctx context.Context, dir string, timeout time.Duration, op string, args ...string) (stdout string, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	gitLog.Printf("running git %s in %s", strings.Join(args, " "), dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", &grafterr.TimeoutError{Op: op, ElapsedMS: timeout.Milliseconds()}
	}
	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if ok := asExitError(runErr, &exitErr); ok {
			exitCode = exitErr.ExitCode()
		}
		return "", &grafterr.GitError{
			Op:         op,
			Argv:       args,
			ExitCode:   exitCode,
			StderrTail: stringutil.LastLines(errBuf.String(), stderrTailLines),
			Err:        runErr,
		}
	}
	return outBuf.String(), nil
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

// IsRepository reports whether path is the root of a git working tree.
func (a *Adapter) IsRepository(ctx context.Context, path string) (bool, error) {
	out, err := a.run(ctx, path, a.statusTimeout(), "is_repository", "rev-parse", "--is-inside-work-tree", "--show-prefix")
	if err == nil {
		// "true" followed by an empty prefix only at the top of a work tree;
		// a subdirectory adds its prefix, a bare repository prints "false".
		return strings.TrimSpace(out) == "true", nil
	}
	var gitErr *grafterr.GitError
	if isGitError(err, &gitErr) {
		return false, nil
	}
	return false, err
}

// IsSubmodule reports whether name is a registered submodule path of path.
func (a *Adapter) IsSubmodule(ctx context.Context, path, name string) (bool, error) {
	out, err := a.run(ctx, path, a.statusTimeout(), "is_submodule", "config", "--file", ".gitmodules", "--get-regexp", `submodule\..*\.path`)
	if err != nil {
		var gitErr *grafterr.GitError
		if isGitError(err, &gitErr) && gitErr.ExitCode == 1 {
			// `git config --get-regexp` exits 1 when no section matches, or
			// .gitmodules does not exist: neither is an I/O error.
			return false, nil
		}
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == name {
			return true, nil
		}
	}
	return false, nil
}

// AddSubmodule adds a submodule at <path>/<name> pointing to url, optionally
// checked out at ref afterward. ref is checked out as a separate step
// (rather than passed as submodule add's -b, which names a tracked branch
// and rejects tags and commits) so any ref kind resolution accepts works
// here too. Already having that submodule registered is not an error
// (idempotent), matching the resolution algorithm's retry semantics.
func (a *Adapter) AddSubmodule(ctx context.Context, path string, url domain.GitUrl, name string, ref *domain.GitRef) error {
	_, err := a.run(ctx, path, a.networkTimeout(), "add_submodule", "submodule", "add", "--force", url.String(), name)
	if err != nil {
		var gitErr *grafterr.GitError
		if !isGitError(err, &gitErr) || !strings.Contains(strings.ToLower(gitErr.StderrTail), "already exists") {
			return err
		}
		gitLog.Printf("submodule %s already exists at %s, treating as idempotent", name, path)
	}

	if ref == nil {
		return nil
	}
	submodulePath := filepath.Join(path, name)
	_, err = a.run(ctx, submodulePath, a.statusTimeout(), "checkout_submodule_ref", "checkout", ref.String())
	return err
}

// UpdateSubmodule ensures name is initialized and checked out at its
// recorded commit.
func (a *Adapter) UpdateSubmodule(ctx context.Context, path, name string) error {
	_, err := a.run(ctx, path, a.networkTimeout(), "update_submodule", "submodule", "update", "--init", "--", name)
	return err
}

// Fetch fetches refs from remote. Best-effort: a local-only repository with
// no configured remote succeeds as a no-op, matching spec semantics that
// network errors on fetch are recoverable rather than fatal to resolution.
func (a *Adapter) Fetch(ctx context.Context, repo, remote string) error {
	_, err := a.run(ctx, repo, a.networkTimeout(), "fetch", "fetch", remote)
	if err == nil {
		return nil
	}
	var gitErr *grafterr.GitError
	if isGitError(err, &gitErr) && strings.Contains(strings.ToLower(gitErr.StderrTail), "does not appear to be a git repository") {
		gitLog.Printf("fetch: %s has no remote %q configured, treating as no-op", repo, remote)
		return nil
	}
	return err
}

// ResolveRef resolves ref to a commit. It tries origin/<ref> first (so a
// remote branch update is picked up even before a local branch of the same
// name is fast-forwarded), then falls back to ref itself.
func (a *Adapter) ResolveRef(ctx context.Context, repo string, ref domain.GitRef) (domain.CommitHash, error) {
	candidates := []string{"origin/" + ref.String(), ref.String()}
	var lastErr error
	for _, candidate := range candidates {
		out, err := a.run(ctx, repo, a.statusTimeout(), "resolve_ref", "rev-parse", "--verify", candidate+"^{commit}")
		if err != nil {
			lastErr = err
			continue
		}
		return domain.NewCommitHash(strings.TrimSpace(out))
	}
	gitLog.Printf("resolve_ref: %q did not resolve via %v: %v", ref.String(), candidates, lastErr)
	return domain.CommitHash{}, &grafterr.UnknownRef{Ref: ref.String()}
}

// ShowFile returns the content of path as it existed at commit, without
// requiring a checkout. Used by pkg/mutate to read a dependency's graft.yaml
// at the upgrade target commit while planning, before any working-tree
// mutation has happened.
func (a *Adapter) ShowFile(ctx context.Context, repo string, commit domain.CommitHash, path string) (string, error) {
	return a.run(ctx, repo, a.statusTimeout(), "show_file", "show", commit.String()+":"+path)
}

// CurrentCommit returns repo's HEAD commit hash.
func (a *Adapter) CurrentCommit(ctx context.Context, repo string) (domain.CommitHash, error) {
	out, err := a.run(ctx, repo, a.statusTimeout(), "current_commit", "rev-parse", "HEAD")
	if err != nil {
		return domain.CommitHash{}, err
	}
	return domain.NewCommitHash(strings.TrimSpace(out))
}

// WorkingTreeClean reports whether repo's working tree and index are clean.
func (a *Adapter) WorkingTreeClean(ctx context.Context, repo string) (bool, error) {
	out, err := a.run(ctx, repo, a.statusTimeout(), "working_tree_clean", "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "", nil
}

// Checkout detaches HEAD at commit. Fails if the working tree would be
// overwritten (git's own "local changes would be overwritten" refusal
// surfaces as a GitError).
func (a *Adapter) Checkout(ctx context.Context, repo string, commit domain.CommitHash) error {
	_, err := a.run(ctx, repo, a.statusTimeout(), "checkout", "checkout", "--detach", commit.String())
	return err
}

// CreateWorktree creates a detached worktree at path, checked out at commit.
func (a *Adapter) CreateWorktree(ctx context.Context, repo, path string, commit domain.CommitHash) error {
	_, err := a.run(ctx, repo, a.networkTimeout(), "create_worktree", "worktree", "add", "--detach", path, commit.String())
	return err
}

// RemoveWorktree removes path as a worktree of repo.
func (a *Adapter) RemoveWorktree(ctx context.Context, repo, path string) error {
	_, err := a.run(ctx, repo, a.statusTimeout(), "remove_worktree", "worktree", "remove", "--force", path)
	return err
}

// Log returns commit hashes on the first-parent history of repo between
// from (exclusive) and to (inclusive), oldest first. from may be the zero
// CommitHash to mean "from the root commit". Grounds pkg/query's --from/--to
// change-range filtering (spec.md §4.8).
func (a *Adapter) Log(ctx context.Context, repo string, from, to domain.CommitHash) ([]domain.CommitHash, error) {
	rangeArg := to.String()
	if !from.IsZero() {
		rangeArg = from.String() + ".." + to.String()
	}
	out, err := a.run(ctx, repo, a.statusTimeout(), "log", "log", "--first-parent", "--format=%H", rangeArg)
	if err != nil {
		return nil, err
	}
	var hashes []domain.CommitHash
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		h, err := domain.NewCommitHash(line)
		if err != nil {
			return nil, fmt.Errorf("unexpected log output %q: %w", line, err)
		}
		hashes = append(hashes, h)
	}
	// git log prints newest-first; reverse to oldest-first for replay order.
	for i, j := 0, len(hashes)-1; i < j; i, j = i+1, j-1 {
		hashes[i], hashes[j] = hashes[j], hashes[i]
	}
	return hashes, nil
}

func isGitError(err error, target **grafterr.GitError) bool {
	ge, ok := err.(*grafterr.GitError)
	if ok {
		*target = ge
	}
	return ok
}
