//go:build !integration

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGitRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple branch", input: "main", wantErr: false},
		{name: "tag with dots", input: "v1.0.0", wantErr: false},
		{name: "full ref path", input: "refs/heads/feature/x", wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "contains space", input: "my branch", wantErr: true},
		{name: "contains dotdot", input: "v1..v2", wantErr: true},
		{name: "leading slash", input: "/main", wantErr: true},
		{name: "double slash", input: "feature//x", wantErr: true},
		{name: "trailing dotlock", input: "main.lock", wantErr: true},
		{name: "at-brace", input: "main@{upstream}", wantErr: true},
		{name: "trailing slash", input: "main/", wantErr: true},
		{name: "trailing dot", input: "main.", wantErr: true},
		{name: "tilde", input: "main~1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := NewGitRef(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, ref.String())
		})
	}
}

func TestGitRefTextRoundTrip(t *testing.T) {
	ref, err := NewGitRef("v2.0")
	require.NoError(t, err)

	b, err := ref.MarshalText()
	require.NoError(t, err)

	var decoded GitRef
	require.NoError(t, decoded.UnmarshalText(b))
	assert.True(t, ref.Equal(decoded))
}

func TestGitRefUnmarshalTextRejectsInvalid(t *testing.T) {
	var ref GitRef
	err := ref.UnmarshalText([]byte("bad ref"))
	require.Error(t, err)
}
