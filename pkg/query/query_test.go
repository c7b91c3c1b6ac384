//go:build !integration

package query

import (
	"context"
	"testing"
	"time"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRef(t *testing.T, s string) domain.GitRef {
	t.Helper()
	r, err := domain.NewGitRef(s)
	require.NoError(t, err)
	return r
}

func mustUrl(t *testing.T, s string) domain.GitUrl {
	t.Helper()
	u, err := domain.NewGitUrl(s)
	require.NoError(t, err)
	return u
}

func mustCommit(t *testing.T, s string) domain.CommitHash {
	t.Helper()
	c, err := domain.NewCommitHash(s)
	require.NoError(t, err)
	return c
}

func buildConfigAndLock(t *testing.T) (domain.GraftConfig, domain.LockFile) {
	t.Helper()
	depA, err := domain.NewDependencySpec("alpha", mustUrl(t, "https://example.com/alpha.git"), mustRef(t, "main"))
	require.NoError(t, err)
	depB, err := domain.NewDependencySpec("beta", mustUrl(t, "https://example.com/beta.git"), mustRef(t, "v1"))
	require.NoError(t, err)
	cfg, err := domain.NewGraftConfig("graft/v0", domain.Metadata{}, []domain.DependencySpec{depA, depB}, nil, nil)
	require.NoError(t, err)

	entry, err := domain.NewLockEntry(depA.Url, depA.Ref, mustCommit(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), domain.NewTimestamp(time.Unix(0, 0).UTC()))
	require.NoError(t, err)
	lf, err := domain.NewLockFile("graft/v0", map[string]domain.LockEntry{"alpha": entry})
	require.NoError(t, err)
	return cfg, lf
}

func TestStatusOrdersByNameAndFillsUnresolvedFromConfig(t *testing.T) {
	cfg, lf := buildConfigAndLock(t)
	entries := Status(context.Background(), "/repo", cfg, lf, StatusOptions{})

	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.True(t, entries[0].ConsumedCommit.Equal(mustCommit(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")))

	assert.Equal(t, "beta", entries[1].Name)
	assert.True(t, entries[1].ConsumedCommit.IsZero())
	assert.Equal(t, "v1", entries[1].ConsumedRef.String())
}

func buildDepConfigWithChanges(t *testing.T) domain.GraftConfig {
	t.Helper()
	migrate, err := domain.NewCommand("do-migrate", "sh migrate.sh", "", "", nil)
	require.NoError(t, err)
	verify, err := domain.NewCommand("do-verify", "sh verify.sh", "", "", nil)
	require.NoError(t, err)

	breaking, err := domain.NewChange(mustRef(t, "v2"), domain.ChangeBreaking, "removes X", "do-migrate", "do-verify", domain.Metadata{})
	require.NoError(t, err)
	feature, err := domain.NewChange(mustRef(t, "v1.5"), domain.ChangeFeature, "adds Y", "", "", domain.Metadata{})
	require.NoError(t, err)

	cfg, err := domain.NewGraftConfig("graft/v0", domain.Metadata{},
		nil,
		[]domain.Change{feature, breaking},
		map[string]domain.Command{"do-migrate": migrate, "do-verify": verify},
	)
	require.NoError(t, err)
	return cfg
}

func TestChangesFiltersByTypeAndPreservesDeclarationOrder(t *testing.T) {
	depCfg := buildDepConfigWithChanges(t)
	cfg, _ := buildConfigAndLock(t)

	all, err := Changes(context.Background(), "/repo", cfg, "alpha", depCfg, ChangesOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "v1.5", all[0].Ref.String())
	assert.Equal(t, "v2", all[1].Ref.String())

	onlyBreaking, err := Changes(context.Background(), "/repo", cfg, "alpha", depCfg, ChangesOptions{Breaking: true})
	require.NoError(t, err)
	require.Len(t, onlyBreaking, 1)
	assert.Equal(t, "v2", onlyBreaking[0].Ref.String())

	onlyFeature, err := Changes(context.Background(), "/repo", cfg, "alpha", depCfg, ChangesOptions{Type: domain.ChangeFeature})
	require.NoError(t, err)
	require.Len(t, onlyFeature, 1)
	assert.Equal(t, "v1.5", onlyFeature[0].Ref.String())
}

func TestChangesUnknownDependencyErrors(t *testing.T) {
	depCfg := buildDepConfigWithChanges(t)
	cfg, _ := buildConfigAndLock(t)

	_, err := Changes(context.Background(), "/repo", cfg, "nonexistent", depCfg, ChangesOptions{})
	require.Error(t, err)
}

func TestShowReturnsChangeAndResolvedCommands(t *testing.T) {
	depCfg := buildDepConfigWithChanges(t)

	result, err := Show(depCfg, mustRef(t, "v2"))
	require.NoError(t, err)
	assert.Equal(t, "v2", result.Change.Ref.String())
	require.NotNil(t, result.Migration)
	assert.Equal(t, "sh migrate.sh", result.Migration.Run)
	require.NotNil(t, result.Verify)
	assert.Equal(t, "sh verify.sh", result.Verify.Run)
}

func TestShowNoCommandsForUndeclaredOnes(t *testing.T) {
	depCfg := buildDepConfigWithChanges(t)

	result, err := Show(depCfg, mustRef(t, "v1.5"))
	require.NoError(t, err)
	assert.Nil(t, result.Migration)
	assert.Nil(t, result.Verify)
}

func TestShowUnknownRefErrors(t *testing.T) {
	depCfg := buildDepConfigWithChanges(t)

	_, err := Show(depCfg, mustRef(t, "v99"))
	require.Error(t, err)
}
