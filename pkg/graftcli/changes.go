package graftcli

import (
	"encoding/json"
	"fmt"

	"github.com/graft-dev/graft/pkg/console"
	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/query"
	"github.com/spf13/cobra"
)

type changeRow struct {
	Ref         string `json:"ref"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Migration   string `json:"migration,omitempty"`
	Verify      string `json:"verify,omitempty"`
}

// NewChangesCommand builds `graft changes <dep>`.
func NewChangesCommand() *cobra.Command {
	var changeType string
	var breaking bool
	var from, to string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "changes <dep>",
		Short: "List a dependency's declared changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			repoRoot, err := findRepoRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}
			depCfg, err := loadDependencyConfig(repoRoot, name)
			if err != nil {
				return err
			}

			opts := query.ChangesOptions{
				Breaking:         breaking,
				DependenciesRoot: dependenciesRoot(),
				Adapter:          adapterFromEnv(),
			}
			if changeType != "" {
				opts.Type = domain.ChangeType(changeType)
			}
			if from != "" {
				ref, err := domain.NewGitRef(from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				opts.From = &ref
			}
			if to != "" {
				ref, err := domain.NewGitRef(to)
				if err != nil {
					return fmt.Errorf("--to: %w", err)
				}
				opts.To = &ref
			}

			changes, err := query.Changes(backgroundCtx(), repoRoot, cfg, name, depCfg, opts)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), console.FormatWarningMessage(err.Error()))
			}

			if jsonOut {
				rows := make([]changeRow, len(changes))
				for i, c := range changes {
					rows[i] = changeRow{Ref: c.Ref.String(), Type: string(c.Type), Description: c.Description, Migration: c.Migration, Verify: c.Verify}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			for _, c := range changes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.Ref, c.Type, c.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&changeType, "type", "", "Filter to a single change type (breaking, feature, fix, refactor, docs)")
	cmd.Flags().BoolVar(&breaking, "breaking", false, "Restrict to breaking changes")
	cmd.Flags().StringVar(&from, "from", "", "Range start ref (exclusive)")
	cmd.Flags().StringVar(&to, "to", "", "Range end ref (inclusive); defaults to the checkout's current HEAD")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output machine-readable JSON")
	return cmd
}
