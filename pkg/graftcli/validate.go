package graftcli

import (
	"encoding/json"
	"fmt"

	"github.com/graft-dev/graft/pkg/console"
	"github.com/graft-dev/graft/pkg/validate"
	"github.com/spf13/cobra"
)

// exitError carries a specific process exit code through cobra's error path
// up to cmd/graft/main.go, for results (like a validate.Report) that name
// their own exit status rather than a simple success/failure.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

type findingJSON struct {
	Mode     string `json:"mode"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
}

// NewValidateCommand builds `graft validate [--config|--lock|--integrity] [--json]`.
func NewValidateCommand() *cobra.Command {
	var configOnly, lockOnly, integrityOnly, jsonOut bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check graft.yaml, graft.lock, and checkout integrity",
		Long: `With no flags, validate runs all three independent checks and accumulates
every finding rather than stopping at the first failure. Exit code is 0 if
every finding is a pass or warning, 1 for a config/lock error, 2 if any
locked dependency's checkout disagrees with graft.lock.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := findRepoRoot()
			if err != nil {
				return err
			}
			cfg, configErr := loadConfig(repoRoot)
			lf, lockErr := loadLockTolerant(repoRoot)

			report := validate.Run(backgroundCtx(), repoRoot, cfg, configErr, lf, lockErr, validate.Options{
				Config:           configOnly,
				Lock:             lockOnly,
				Integrity:        integrityOnly,
				DependenciesRoot: dependenciesRoot(),
				Adapter:          adapterFromEnv(),
			})

			w := cmd.OutOrStdout()
			if jsonOut {
				rows := make([]findingJSON, len(report.Findings))
				for i, f := range report.Findings {
					rows[i] = findingJSON{Mode: string(f.Mode), Severity: string(f.Severity), Message: f.Message, Hint: f.Hint}
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rows); err != nil {
					return err
				}
			} else {
				for _, f := range report.Findings {
					switch f.Severity {
					case validate.SeverityError:
						fmt.Fprintln(w, console.FormatErrorMessage(fmt.Sprintf("[%s] %s", f.Mode, f.Message)))
					case validate.SeverityWarning:
						fmt.Fprintln(w, console.FormatWarningMessage(fmt.Sprintf("[%s] %s", f.Mode, f.Message)))
					default:
						fmt.Fprintln(w, console.FormatSuccessMessage(fmt.Sprintf("[%s] %s", f.Mode, f.Message)))
					}
					if f.Hint != "" {
						fmt.Fprintln(w, console.FormatHint(f.Hint))
					}
				}
			}

			if report.Exit == validate.ExitOK {
				return nil
			}
			return &exitError{code: int(report.Exit), msg: fmt.Sprintf("validate: %d finding(s) failed", countFailed(report.Findings))}
		},
	}
	cmd.Flags().BoolVar(&configOnly, "config", false, "Only check graft.yaml")
	cmd.Flags().BoolVar(&lockOnly, "lock", false, "Only check graft.lock")
	cmd.Flags().BoolVar(&integrityOnly, "integrity", false, "Only check checkout integrity against graft.lock")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output machine-readable JSON")
	return cmd
}

func countFailed(findings []validate.Finding) int {
	n := 0
	for _, f := range findings {
		if !f.Passed() {
			n++
		}
	}
	return n
}
