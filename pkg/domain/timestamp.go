package domain

import (
	"fmt"
	"time"
)

// timestampLayout is RFC-3339 UTC with second precision, e.g.
// "2026-07-29T14:05:09Z". The lock file never carries sub-second precision:
// consumed_at records when a dependency was consumed, not a performance
// measurement.
const timestampLayout = "2006-01-02T15:04:05Z"

// Timestamp is an RFC-3339 UTC, second-precision instant, used for
// LockEntry.ConsumedAt.
type Timestamp struct {
	t time.Time
}

// NewTimestamp truncates t to UTC seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.UTC().Truncate(time.Second)}
}

// ParseTimestamp parses an RFC-3339 UTC second-precision string.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		// Accept any RFC3339 variant (fractional seconds, non-Z offsets) on
		// read per Postel's law, but always re-emit in the canonical form.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return Timestamp{}, fmt.Errorf("consumed_at %q is not RFC-3339: %w", s, err)
		}
	}
	return NewTimestamp(t), nil
}

// Time returns the underlying time.Time in UTC.
func (ts Timestamp) Time() time.Time { return ts.t }

// String renders the canonical RFC-3339 UTC second-precision form.
func (ts Timestamp) String() string { return ts.t.Format(timestampLayout) }

// IsZero reports whether this is the unconstructed zero value.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// MarshalText implements encoding.TextMarshaler.
func (ts Timestamp) MarshalText() ([]byte, error) { return []byte(ts.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *Timestamp) UnmarshalText(b []byte) error {
	parsed, err := ParseTimestamp(string(b))
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
