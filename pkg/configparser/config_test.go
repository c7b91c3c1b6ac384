//go:build !integration

package configparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLegacyShorthand(t *testing.T) {
	text := `
apiVersion: graft/v0
deps:
  meta-kb: "git@host:org/meta.git#v1.0"
`
	cfg, err := Parse(text, "")
	require.NoError(t, err)
	require.Len(t, cfg.Dependencies, 1)

	dep, ok := cfg.DependencyByName("meta-kb")
	require.True(t, ok)
	assert.Equal(t, "ssh://git@host/org/meta.git", dep.Url.String())
	assert.Equal(t, "v1.0", dep.Ref.String())
}

func TestParseModernMapping(t *testing.T) {
	text := `
apiVersion: graft/v0
dependencies:
  meta-kb:
    url: https://example.com/meta.git
    ref: main
`
	cfg, err := Parse(text, "")
	require.NoError(t, err)
	dep, ok := cfg.DependencyByName("meta-kb")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/meta.git", dep.Url.String())
}

func TestParseRejectsBothLegacyAndModernDeps(t *testing.T) {
	text := `
apiVersion: graft/v0
deps:
  a: "https://example.com/a.git#main"
dependencies:
  b:
    url: https://example.com/b.git
    ref: main
`
	_, err := Parse(text, "")
	require.Error(t, err)
}

func TestParseChangesPreserveDeclarationOrder(t *testing.T) {
	text := `
apiVersion: graft/v0
dependencies:
  meta-kb:
    url: https://example.com/meta.git
    ref: v2.0
commands:
  migrate-v2:
    run: ./migrate.sh
  migrate-v3:
    run: ./migrate2.sh
changes:
  v2.0:
    type: breaking
    migration: migrate-v2
  v1.5:
    type: feature
  v3.0:
    type: breaking
    migration: migrate-v3
`
	cfg, err := Parse(text, "")
	require.NoError(t, err)
	require.Len(t, cfg.Changes, 3)

	var refs []string
	for _, c := range cfg.Changes {
		refs = append(refs, c.Ref.String())
	}
	assert.Equal(t, []string{"v2.0", "v1.5", "v3.0"}, refs)
}

func TestParseRejectsUnknownMigrationCommand(t *testing.T) {
	text := `
apiVersion: graft/v0
changes:
  v2.0:
    migration: does-not-exist
`
	_, err := Parse(text, "")
	require.Error(t, err)
}

func TestParseRejectsMissingApiVersion(t *testing.T) {
	_, err := Parse("dependencies: {}\n", "")
	require.Error(t, err)
}

func TestParseRejectsUnknownTopLevelKey(t *testing.T) {
	text := `
apiVersion: graft/v0
bogusKey: true
`
	_, err := Parse(text, "")
	require.Error(t, err)
}
