// Package styles provides centralized style and color definitions for terminal output.
//
// Colors use lipgloss.AdaptiveColor so output stays readable on both light and
// dark terminal backgrounds without any per-call branching.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// ColorError is used for error messages and integrity mismatches.
	ColorError = lipgloss.AdaptiveColor{Light: "#D73737", Dark: "#FF5555"}

	// ColorWarning is used for warnings (extra lock entries, legacy clones, etc).
	ColorWarning = lipgloss.AdaptiveColor{Light: "#E67E22", Dark: "#FFB86C"}

	// ColorSuccess is used for passing validation checks and completed operations.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#27AE60", Dark: "#50FA7B"}

	// ColorInfo is used for informational progress messages.
	ColorInfo = lipgloss.AdaptiveColor{Light: "#2980B9", Dark: "#8BE9FD"}

	// ColorComment is used for secondary, muted text like hints.
	ColorComment = lipgloss.AdaptiveColor{Light: "#6C7A89", Dark: "#6272A4"}
)

// Error style for error/✗ bullets - bold red.
var Error = lipgloss.NewStyle().Bold(true).Foreground(ColorError)

// Warning style for warning/⚠ bullets - bold orange.
var Warning = lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)

// Success style for success/✓ bullets - bold green.
var Success = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)

// Info style for informational messages - bold cyan.
var Info = lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)

// Hint style for actionable suggestions attached to a failure.
var Hint = lipgloss.NewStyle().Italic(true).Foreground(ColorComment)
