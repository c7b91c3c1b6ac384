package graftcli

import (
	"encoding/json"
	"fmt"

	"github.com/graft-dev/graft/pkg/query"
	"github.com/spf13/cobra"
)

type statusRow struct {
	Name           string `json:"name"`
	Source         string `json:"source"`
	ConsumedRef    string `json:"consumed_ref"`
	ConsumedCommit string `json:"consumed_commit"`
	ConsumedAt     string `json:"consumed_at"`
	LatestCommit   string `json:"latest_commit,omitempty"`
	UpdateError    string `json:"update_check_error,omitempty"`
}

// NewStatusCommand builds `graft status`.
func NewStatusCommand() *cobra.Command {
	var checkUpdates bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show each dependency's consumed state",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := findRepoRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}
			lf, err := loadLockTolerant(repoRoot)
			if err != nil {
				return err
			}

			entries := query.Status(backgroundCtx(), repoRoot, cfg, lf, query.StatusOptions{
				CheckUpdates:     checkUpdates,
				DependenciesRoot: dependenciesRoot(),
				Adapter:          adapterFromEnv(),
			})

			if jsonOut {
				rows := make([]statusRow, len(entries))
				for i, e := range entries {
					rows[i] = statusRow{
						Name: e.Name, Source: e.Source.String(), ConsumedRef: e.ConsumedRef.String(),
						ConsumedCommit: e.ConsumedCommit.String(), ConsumedAt: e.ConsumedAt.String(),
					}
					if !e.LatestCommit.IsZero() {
						rows[i].LatestCommit = e.LatestCommit.String()
					}
					if e.UpdateCheckErr != nil {
						rows[i].UpdateError = e.UpdateCheckErr.Error()
					}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			for _, e := range entries {
				if e.ConsumedCommit.IsZero() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tnot yet resolved (declared ref %s)\n", e.Name, e.ConsumedRef)
					continue
				}
				line := fmt.Sprintf("%s\t%s@%s\t%s\n", e.Name, e.ConsumedRef, e.ConsumedCommit, e.ConsumedAt)
				if checkUpdates {
					switch {
					case e.UpdateCheckErr != nil:
						line = fmt.Sprintf("%s\t%s@%s\t%s\tupdate check failed: %v\n", e.Name, e.ConsumedRef, e.ConsumedCommit, e.ConsumedAt, e.UpdateCheckErr)
					case !e.LatestCommit.Equal(e.ConsumedCommit):
						line = fmt.Sprintf("%s\t%s@%s\t%s\tupdate available: %s\n", e.Name, e.ConsumedRef, e.ConsumedCommit, e.ConsumedAt, e.LatestCommit)
					default:
						line = fmt.Sprintf("%s\t%s@%s\t%s\tup to date\n", e.Name, e.ConsumedRef, e.ConsumedCommit, e.ConsumedAt)
					}
				}
				fmt.Fprint(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkUpdates, "check-updates", false, "Also resolve each dependency's current remote tip")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output machine-readable JSON")
	return cmd
}
