//go:build !integration

package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustRef(t *testing.T, s string) GitRef {
	t.Helper()
	r, err := NewGitRef(s)
	require.NoError(t, err)
	return r
}

func mustUrl(t *testing.T, s string) GitUrl {
	t.Helper()
	u, err := NewGitUrl(s)
	require.NoError(t, err)
	return u
}

func TestNewGraftConfigRejectsBadApiVersion(t *testing.T) {
	_, err := NewGraftConfig("v0", Metadata{}, nil, nil, nil)
	require.Error(t, err)
}

func TestNewGraftConfigRejectsDuplicateDependencyNames(t *testing.T) {
	dep, err := NewDependencySpec("meta-kb", mustUrl(t, "https://example.com/meta.git"), mustRef(t, "main"))
	require.NoError(t, err)

	_, err = NewGraftConfig("graft/v0", Metadata{}, []DependencySpec{dep, dep}, nil, nil)
	require.Error(t, err)
}

func TestNewGraftConfigRejectsUnknownMigrationCommand(t *testing.T) {
	change, err := NewChange(mustRef(t, "v2.0"), ChangeBreaking, "breaking change", "migrate-v2", "", Metadata{})
	require.NoError(t, err)

	_, err = NewGraftConfig("graft/v0", Metadata{}, nil, []Change{change}, map[string]Command{})
	require.Error(t, err)
}

func TestNewGraftConfigAcceptsDeclaredCommands(t *testing.T) {
	cmd, err := NewCommand("migrate-v2", "./migrate.sh", "", "", nil)
	require.NoError(t, err)

	change, err := NewChange(mustRef(t, "v2.0"), ChangeBreaking, "breaking change", "migrate-v2", "", Metadata{})
	require.NoError(t, err)

	cfg, err := NewGraftConfig("graft/v0", Metadata{}, nil, []Change{change}, map[string]Command{"migrate-v2": cmd})
	require.NoError(t, err)

	got, ok := cfg.ChangeByRef("v2.0")
	require.True(t, ok)
	require.Equal(t, "migrate-v2", got.Migration)
}

func TestSortedDependencyNames(t *testing.T) {
	names := []string{"zeta", "alpha", "meta-kb"}
	var deps []DependencySpec
	for _, n := range names {
		d, err := NewDependencySpec(n, mustUrl(t, "https://example.com/"+n+".git"), mustRef(t, "main"))
		require.NoError(t, err)
		deps = append(deps, d)
	}

	cfg, err := NewGraftConfig("graft/v0", Metadata{}, deps, nil, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"alpha", "meta-kb", "zeta"}, cfg.SortedDependencyNames())
}
