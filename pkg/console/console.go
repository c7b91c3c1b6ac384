// Package console renders engine results for the thin CLI layer. It holds no
// business logic: every type it formats is produced by pkg/query, pkg/validate,
// pkg/resolve or pkg/mutate.
package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/graft-dev/graft/pkg/logger"
	"github.com/graft-dev/graft/pkg/styles"
	"github.com/graft-dev/graft/pkg/tty"
)

var consoleLog = logger.New("console:console")

func isTTY() bool {
	return tty.IsStdoutTerminal()
}

func applyStyle(style lipgloss.Style, text string) string {
	if isTTY() {
		return style.Render(text)
	}
	return text
}

// FormatSuccessMessage formats a passing check ("✓ ...").
func FormatSuccessMessage(message string) string {
	return applyStyle(styles.Success, "✓") + " " + message
}

// FormatInfoMessage formats an informational progress line.
func FormatInfoMessage(message string) string {
	return applyStyle(styles.Info, "ℹ") + " " + message
}

// FormatWarningMessage formats a non-fatal warning ("⚠ ...").
func FormatWarningMessage(message string) string {
	return applyStyle(styles.Warning, "⚠") + " " + message
}

// FormatErrorMessage formats a failing check ("✗ ...").
func FormatErrorMessage(message string) string {
	return applyStyle(styles.Error, "✗") + " " + message
}

// FormatHint formats an actionable suggestion attached to a failure, indented
// under the bullet it belongs to.
func FormatHint(hint string) string {
	if hint == "" {
		return ""
	}
	return "    " + applyStyle(styles.Hint, "hint: "+hint)
}

// ReportLine is one bullet in a rendered resolve/fetch/sync report.
type ReportLine struct {
	OK      bool // unused when Warning is true
	Warning bool
	Message string
	Hint    string
}

// RenderReport renders a list of report lines as ✓/✗/⚠ bullets, one per line,
// with indented hints under any failing line. Used by `resolve`, `fetch`,
// and `sync` text-mode output.
func RenderReport(lines []ReportLine) string {
	consoleLog.Printf("Rendering report with %d lines", len(lines))
	var b strings.Builder
	for _, l := range lines {
		switch {
		case l.Warning:
			b.WriteString(FormatWarningMessage(l.Message))
		case l.OK:
			b.WriteString(FormatSuccessMessage(l.Message))
		default:
			b.WriteString(FormatErrorMessage(l.Message))
		}
		b.WriteString("\n")
		if hint := FormatHint(l.Hint); hint != "" {
			b.WriteString(hint)
			b.WriteString("\n")
		}
	}
	return b.String()
}
