//go:build integration

package resolve

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/gitadapter"
	"github.com/stretchr/testify/require"
)

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

func initUpstream(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi\n"), 0o644))
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-q", "-m", "initial")
	return dir
}

func TestResolveAddsSubmoduleAndWritesLock(t *testing.T) {
	upstream := initUpstream(t)
	consumer := t.TempDir()
	runGit(t, consumer, "init", "-q", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(consumer, "README.md"), []byte("consumer\n"), 0o644))
	runGit(t, consumer, "add", "README.md")
	runGit(t, consumer, "commit", "-q", "-m", "initial")

	url, err := domain.NewGitUrl(upstream)
	require.NoError(t, err)
	ref, err := domain.NewGitRef("main")
	require.NoError(t, err)
	spec, err := domain.NewDependencySpec("meta-kb", url, ref)
	require.NoError(t, err)
	cfg, err := domain.NewGraftConfig("graft/v0", domain.Metadata{}, []domain.DependencySpec{spec}, nil, nil)
	require.NoError(t, err)

	results, err := Resolve(context.Background(), consumer, cfg, Options{Adapter: &gitadapter.Adapter{}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, StatusCloned, results[0].Status)

	lockPath := filepath.Join(consumer, "graft.lock")
	require.FileExists(t, lockPath)
}
