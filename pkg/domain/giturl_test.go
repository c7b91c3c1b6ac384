//go:build !integration

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGitUrl(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "https", input: "https://github.com/org/repo.git", want: "https://github.com/org/repo.git"},
		{name: "ssh explicit", input: "ssh://git@github.com/org/repo.git", want: "ssh://git@github.com/org/repo.git"},
		{name: "file url", input: "file:///srv/repos/meta.git", want: "file:///srv/repos/meta.git"},
		{name: "absolute path", input: "/srv/repos/meta.git", want: "/srv/repos/meta.git"},
		{name: "scp shorthand", input: "git@host:org/meta.git", want: "ssh://git@host/org/meta.git"},
		{name: "scp shorthand no user", input: "host.example.com:org/meta.git", want: "ssh://host.example.com/org/meta.git"},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewGitUrl(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}
