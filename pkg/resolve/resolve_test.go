//go:build !integration

package resolve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/lockstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithNoDependenciesWritesEmptyLock(t *testing.T) {
	dir := t.TempDir()
	cfg, err := domain.NewGraftConfig("graft/v0", domain.Metadata{}, nil, nil, nil)
	require.NoError(t, err)

	results, err := Resolve(context.Background(), dir, cfg, Options{})
	require.NoError(t, err)
	assert.Empty(t, results)

	lf, err := lockstore.ReadFile(filepath.Join(dir, "graft.lock"))
	require.NoError(t, err)
	assert.Equal(t, "graft/v0", lf.ApiVersion)
	assert.Empty(t, lf.Dependencies)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}
	assert.Equal(t, ".graft", o.depsRootRel())
	assert.Equal(t, filepath.Join("/repo", "graft.lock"), o.lockPath("/repo"))
}
