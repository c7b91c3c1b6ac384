//go:build integration

package gitadapter

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/stretchr/testify/require"
)

// runGit is a test helper that shells out directly (not through the
// adapter) to set up fixture repositories.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
}

func initRepoWithCommit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-q", "-m", "initial")
	return dir
}

func TestIsRepository(t *testing.T) {
	dir := initRepoWithCommit(t)
	a := &Adapter{}

	ok, err := a.IsRepository(context.Background(), dir)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.IsRepository(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCurrentCommitAndWorkingTreeClean(t *testing.T) {
	dir := initRepoWithCommit(t)
	a := &Adapter{}
	ctx := context.Background()

	commit, err := a.CurrentCommit(ctx, dir)
	require.NoError(t, err)
	require.Len(t, commit.String(), 40)

	clean, err := a.WorkingTreeClean(ctx, dir)
	require.NoError(t, err)
	require.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dirty.txt"), []byte("x"), 0o644))
	clean, err = a.WorkingTreeClean(ctx, dir)
	require.NoError(t, err)
	require.False(t, clean)
}

func TestResolveRefUnknown(t *testing.T) {
	dir := initRepoWithCommit(t)
	a := &Adapter{}
	ref, err := domain.NewGitRef("does-not-exist")
	require.NoError(t, err)

	_, err = a.ResolveRef(context.Background(), dir, ref)
	require.Error(t, err)
}

func TestResolveRefAndCheckout(t *testing.T) {
	dir := initRepoWithCommit(t)
	a := &Adapter{}
	ctx := context.Background()

	ref, err := domain.NewGitRef("main")
	require.NoError(t, err)
	commit, err := a.ResolveRef(ctx, dir, ref)
	require.NoError(t, err)

	head, err := a.CurrentCommit(ctx, dir)
	require.NoError(t, err)
	require.True(t, commit.Equal(head))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.txt"), []byte("x"), 0o644))
	runGit(t, dir, "add", "second.txt")
	runGit(t, dir, "commit", "-q", "-m", "second")

	require.NoError(t, a.Checkout(ctx, dir, commit))
	head, err = a.CurrentCommit(ctx, dir)
	require.NoError(t, err)
	require.True(t, commit.Equal(head))
}

func TestCreateAndRemoveWorktree(t *testing.T) {
	dir := initRepoWithCommit(t)
	a := &Adapter{}
	ctx := context.Background()

	commit, err := a.CurrentCommit(ctx, dir)
	require.NoError(t, err)

	wtPath := filepath.Join(t.TempDir(), "wt")
	require.NoError(t, a.CreateWorktree(ctx, dir, wtPath, commit))
	require.DirExists(t, wtPath)

	require.NoError(t, a.RemoveWorktree(ctx, dir, wtPath))
	require.NoDirExists(t, wtPath)
}

func TestLogFirstParentOrder(t *testing.T) {
	dir := initRepoWithCommit(t)
	a := &Adapter{}
	ctx := context.Background()

	first, err := a.CurrentCommit(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.txt"), []byte("x"), 0o644))
	runGit(t, dir, "add", "second.txt")
	runGit(t, dir, "commit", "-q", "-m", "second")
	second, err := a.CurrentCommit(ctx, dir)
	require.NoError(t, err)

	hashes, err := a.Log(ctx, dir, domain.CommitHash{}, second)
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	require.True(t, hashes[0].Equal(first))
	require.True(t, hashes[1].Equal(second))
}

func TestAddSubmoduleIdempotent(t *testing.T) {
	upstream := initRepoWithCommit(t)
	consumer := initRepoWithCommit(t)
	a := &Adapter{}
	ctx := context.Background()

	url, err := domain.NewGitUrl(upstream)
	require.NoError(t, err)

	require.NoError(t, a.AddSubmodule(ctx, consumer, url, "dep", nil))
	isSub, err := a.IsSubmodule(ctx, consumer, "dep")
	require.NoError(t, err)
	require.True(t, isSub)

	// Re-adding the same submodule must not be an error (idempotent).
	require.NoError(t, a.AddSubmodule(ctx, consumer, url, "dep", nil))
}
