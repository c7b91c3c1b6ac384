// Package stringutil provides utility functions for working with strings.
package stringutil

// Truncate truncates a string to a maximum length, adding "..." if truncated.
// If maxLen is 3 or less, the string is truncated without "...".
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// LastLines returns the last n non-empty lines of s, joined by "\n". Used to
// cap the stderr captured from a failed subprocess to a reasonable size
// before it's embedded in an error message.
func LastLines(s string, n int) string {
	lines := splitNonEmptyLines(s)
	if len(lines) <= n {
		return joinLines(lines)
	}
	return joinLines(lines[len(lines)-n:])
}

func splitNonEmptyLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if line := s[start:i]; line != "" {
				lines = append(lines, line)
			}
			start = i + 1
		}
	}
	if start < len(s) {
		if line := s[start:]; line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
