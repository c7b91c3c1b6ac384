package domain

import "fmt"

// CommitHash is a 40-character lowercase hex SHA-1 commit id.
//
// A future SHA-256 object-format repository would need a 64-character
// variant; that is a non-breaking extension (a second constructor and a
// length-dispatch in validation), not a change to this type's contract.
type CommitHash struct {
	value string
}

// NewCommitHash validates s as a 40-char lowercase hex string.
func NewCommitHash(s string) (CommitHash, error) {
	if len(s) != 40 {
		return CommitHash{}, fmt.Errorf("commit hash must be 40 hex characters, got %d: %q", len(s), s)
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return CommitHash{}, fmt.Errorf("commit hash %q must be lowercase hex", s)
		}
	}
	return CommitHash{value: s}, nil
}

// String returns the 40-char hex value.
func (h CommitHash) String() string { return h.value }

// IsZero reports whether this is the unconstructed zero value.
func (h CommitHash) IsZero() bool { return h.value == "" }

// Equal reports whether two commit hashes are the same.
func (h CommitHash) Equal(other CommitHash) bool { return h.value == other.value }

// MarshalText implements encoding.TextMarshaler.
func (h CommitHash) MarshalText() ([]byte, error) { return []byte(h.value), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *CommitHash) UnmarshalText(b []byte) error {
	parsed, err := NewCommitHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
