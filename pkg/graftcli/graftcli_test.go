//go:build !integration

package graftcli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDepRef(t *testing.T) {
	dep, ref, err := splitDepRef("meta-kb@v2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "meta-kb", dep)
	assert.Equal(t, "v2.0.0", ref)
}

func TestSplitDepRefRejectsMissingAt(t *testing.T) {
	_, _, err := splitDepRef("meta-kb")
	assert.Error(t, err)
}

func TestSplitDepRefRejectsEmptyDepOrRef(t *testing.T) {
	_, _, err := splitDepRef("@v2")
	assert.Error(t, err)
	_, _, err = splitDepRef("meta-kb@")
	assert.Error(t, err)
}

func TestRootCommandWiresEveryOperation(t *testing.T) {
	root := NewRootCommand("test")
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"resolve", "status", "changes", "show", "fetch", "sync", "apply", "upgrade", "validate"} {
		assert.True(t, names[want], "expected %q to be registered", want)
	}
}

func TestDependenciesRootDefaultsToDotGraft(t *testing.T) {
	t.Setenv("GRAFT_DEPS_DIR", "")
	assert.Equal(t, ".graft", dependenciesRoot())
}

func TestDependenciesRootHonorsEnvOverride(t *testing.T) {
	t.Setenv("GRAFT_DEPS_DIR", "vendor/graft")
	assert.Equal(t, "vendor/graft", dependenciesRoot())
}

func TestAdapterFromEnvIgnoresInvalidTimeout(t *testing.T) {
	t.Setenv("GRAFT_GIT_TIMEOUT_MS", "not-a-number")
	a := adapterFromEnv()
	assert.Equal(t, int64(0), int64(a.StatusTimeout))
}
