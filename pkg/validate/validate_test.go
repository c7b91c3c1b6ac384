//go:build !integration

package validate

import (
	"context"
	"testing"
	"time"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUrl(t *testing.T, s string) domain.GitUrl {
	t.Helper()
	u, err := domain.NewGitUrl(s)
	require.NoError(t, err)
	return u
}

func mustRef(t *testing.T, s string) domain.GitRef {
	t.Helper()
	r, err := domain.NewGitRef(s)
	require.NoError(t, err)
	return r
}

func mustCommit(t *testing.T, s string) domain.CommitHash {
	t.Helper()
	c, err := domain.NewCommitHash(s)
	require.NoError(t, err)
	return c
}

func buildCleanConfigAndLock(t *testing.T) (domain.GraftConfig, domain.LockFile) {
	t.Helper()
	dep, err := domain.NewDependencySpec("alpha", mustUrl(t, "https://example.com/alpha.git"), mustRef(t, "main"))
	require.NoError(t, err)
	cfg, err := domain.NewGraftConfig("graft/v0", domain.Metadata{}, []domain.DependencySpec{dep}, nil, nil)
	require.NoError(t, err)

	entry, err := domain.NewLockEntry(dep.Url, dep.Ref, mustCommit(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), domain.NewTimestamp(time.Unix(0, 0).UTC()))
	require.NoError(t, err)
	lf, err := domain.NewLockFile("graft/v0", map[string]domain.LockEntry{"alpha": entry})
	require.NoError(t, err)
	return cfg, lf
}

func TestRunCleanStateExitsOK(t *testing.T) {
	cfg, lf := buildCleanConfigAndLock(t)
	report := Run(context.Background(), "/repo", cfg, nil, lf, nil, Options{Config: true, Lock: true})

	assert.Equal(t, ExitOK, report.Exit)
	for _, f := range report.Findings {
		assert.Truef(t, f.Passed(), "unexpected finding: %+v", f)
	}
}

func TestRunConfigParseErrorExitsOne(t *testing.T) {
	cfg, lf := buildCleanConfigAndLock(t)
	report := Run(context.Background(), "/repo", cfg, assertError("bad yaml"), lf, nil, Options{Config: true})
	assert.Equal(t, ExitConfigOrLockFail, report.Exit)
}

func TestRunLockSourceMismatchIsError(t *testing.T) {
	cfg, lf := buildCleanConfigAndLock(t)
	entry := lf.Dependencies["alpha"]
	mismatched, err := domain.NewLockEntry(mustUrl(t, "https://example.com/wrong.git"), entry.Ref, entry.Commit, entry.ConsumedAt)
	require.NoError(t, err)
	lf2, err := domain.NewLockFile(lf.ApiVersion, map[string]domain.LockEntry{"alpha": mismatched})
	require.NoError(t, err)

	report := Run(context.Background(), "/repo", cfg, nil, lf2, nil, Options{Lock: true})
	assert.Equal(t, ExitConfigOrLockFail, report.Exit)
	found := false
	for _, f := range report.Findings {
		if f.Severity == SeverityError && f.Mode == ModeLock {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRunLockExtraEntryIsWarningNotError(t *testing.T) {
	cfg, lf := buildCleanConfigAndLock(t)
	extra, err := domain.NewLockEntry(mustUrl(t, "https://example.com/gone.git"), mustRef(t, "main"), mustCommit(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"), domain.NewTimestamp(time.Unix(0, 0).UTC()))
	require.NoError(t, err)
	entries := map[string]domain.LockEntry{"alpha": lf.Dependencies["alpha"], "gone": extra}
	lf2, err := domain.NewLockFile(lf.ApiVersion, entries)
	require.NoError(t, err)

	report := Run(context.Background(), "/repo", cfg, nil, lf2, nil, Options{Lock: true})
	assert.Equal(t, ExitOK, report.Exit)
	var sawWarning bool
	for _, f := range report.Findings {
		if f.Mode == ModeLock && f.Severity == SeverityWarning {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
}

func TestRunIntegrityMissingCheckoutExitsTwo(t *testing.T) {
	cfg, lf := buildCleanConfigAndLock(t)
	report := Run(context.Background(), t.TempDir(), cfg, nil, lf, nil, Options{Integrity: true})
	assert.Equal(t, ExitIntegrityFail, report.Exit)
}

func TestRunNoModeSelectedRunsAll(t *testing.T) {
	cfg, lf := buildCleanConfigAndLock(t)
	report := Run(context.Background(), t.TempDir(), cfg, nil, lf, nil, Options{})
	var modes map[Mode]bool = map[Mode]bool{}
	for _, f := range report.Findings {
		modes[f.Mode] = true
	}
	assert.True(t, modes[ModeConfig])
	assert.True(t, modes[ModeLock])
	assert.True(t, modes[ModeIntegrity])
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func assertError(s string) error { return assertErr(s) }
