package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// GitUrl is a normalized, validated git remote URL. scp-style shorthand
// (git@host:path) is normalized to ssh://git@host/path at construction;
// https://, ssh://, file://, and bare filesystem paths are accepted as-is.
type GitUrl struct {
	value string
}

var scpLikeURL = regexp.MustCompile(`^([a-zA-Z0-9_.-]+@)?([a-zA-Z0-9_.-]+):(.+)$`)

// NewGitUrl validates and normalizes s into a GitUrl.
func NewGitUrl(s string) (GitUrl, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return GitUrl{}, fmt.Errorf("git url must not be empty")
	}

	switch {
	case strings.HasPrefix(s, "https://"),
		strings.HasPrefix(s, "http://"),
		strings.HasPrefix(s, "ssh://"),
		strings.HasPrefix(s, "git://"),
		strings.HasPrefix(s, "file://"):
		return GitUrl{value: s}, nil
	case strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../"):
		return GitUrl{value: s}, nil
	}

	// scp-like shorthand: git@host:org/repo(.git) -> ssh://git@host/org/repo
	if m := scpLikeURL.FindStringSubmatch(s); m != nil && !strings.Contains(m[2], "://") {
		user, host, path := m[1], m[2], m[3]
		if strings.Contains(host, "/") {
			// not actually a host:path pair (e.g. a relative path with a colon later on)
			return GitUrl{}, fmt.Errorf("git url %q is not a recognized form", s)
		}
		normalized := fmt.Sprintf("ssh://%s%s/%s", user, host, path)
		return GitUrl{value: normalized}, nil
	}

	return GitUrl{}, fmt.Errorf("git url %q is not a recognized form (expected https://, ssh://, file://, a path, or scp-style git@host:path)", s)
}

// String returns the normalized URL.
func (u GitUrl) String() string { return u.value }

// IsZero reports whether this is the unconstructed zero value.
func (u GitUrl) IsZero() bool { return u.value == "" }

// Equal reports whether two URLs are textually identical after normalization.
func (u GitUrl) Equal(other GitUrl) bool { return u.value == other.value }

// MarshalText implements encoding.TextMarshaler.
func (u GitUrl) MarshalText() ([]byte, error) { return []byte(u.value), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *GitUrl) UnmarshalText(b []byte) error {
	parsed, err := NewGitUrl(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
