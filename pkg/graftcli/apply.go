package graftcli

import (
	"fmt"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/mutate"
	"github.com/spf13/cobra"
)

// NewApplyCommand builds `graft apply <dep> --to <ref>`.
func NewApplyCommand() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "apply <dep> --to <ref>",
		Short: "Move a dependency's lock entry to a ref without touching its checkout",
		Long: `Apply resolves --to against the dependency's remote and rewrites its
graft.lock entry, but leaves the checkout under .graft/<dep>/ untouched. Run
"graft sync <dep>" afterward to bring the working tree to the new commit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("apply: --to is required")
			}
			name := args[0]
			ref, err := domain.NewGitRef(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

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

			_, err = mutate.Apply(backgroundCtx(), repoRoot, cfg, lf, name, ref, mutate.ApplyOptions{
				DependenciesRoot: dependenciesRoot(),
				Adapter:          adapterFromEnv(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s locked to %s\n", name, ref)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Ref to move the lock entry to (required)")
	return cmd
}
