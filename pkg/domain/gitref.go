package domain

import (
	"fmt"
	"strings"
)

// GitRef is a validated git reference name (branch, tag, or full ref path).
// Immutable once constructed; NewGitRef is the only way to produce one.
type GitRef struct {
	value string
}

// NewGitRef validates s against the subset of `git check-ref-format` rules
// the engine cares about and returns a GitRef wrapping it.
func NewGitRef(s string) (GitRef, error) {
	if s == "" {
		return GitRef{}, fmt.Errorf("git ref must not be empty")
	}
	if strings.ContainsAny(s, " \t\n") {
		return GitRef{}, fmt.Errorf("git ref %q must not contain whitespace", s)
	}
	if strings.Contains(s, "..") {
		return GitRef{}, fmt.Errorf("git ref %q must not contain '..'", s)
	}
	if strings.HasPrefix(s, "/") || strings.Contains(s, "//") {
		return GitRef{}, fmt.Errorf("git ref %q must not start with '/' or contain '//'", s)
	}
	if strings.HasSuffix(s, ".lock") {
		return GitRef{}, fmt.Errorf("git ref %q must not end with '.lock'", s)
	}
	if strings.Contains(s, "@{") {
		return GitRef{}, fmt.Errorf("git ref %q must not contain '@{'", s)
	}
	if strings.HasSuffix(s, "/") || strings.HasSuffix(s, ".") {
		return GitRef{}, fmt.Errorf("git ref %q must not end with '/' or '.'", s)
	}
	if strings.ContainsAny(s, "~^:?*[\\") {
		return GitRef{}, fmt.Errorf("git ref %q must not contain '~^:?*[\\\\'", s)
	}
	return GitRef{value: s}, nil
}

// String returns the ref's textual form.
func (r GitRef) String() string { return r.value }

// IsZero reports whether this is the zero-value (unconstructed) GitRef.
func (r GitRef) IsZero() bool { return r.value == "" }

// Equal reports whether two refs have the same textual value.
func (r GitRef) Equal(other GitRef) bool { return r.value == other.value }

// MarshalText implements encoding.TextMarshaler so GitRef round-trips through
// goccy/go-yaml and encoding/json unchanged.
func (r GitRef) MarshalText() ([]byte, error) { return []byte(r.value), nil }

// UnmarshalText implements encoding.TextUnmarshaler with the same validation
// NewGitRef performs, so invalid refs can never enter via decode.
func (r *GitRef) UnmarshalText(b []byte) error {
	ref, err := NewGitRef(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
