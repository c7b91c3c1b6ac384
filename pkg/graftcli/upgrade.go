package graftcli

import (
	"fmt"
	"time"

	"github.com/graft-dev/graft/pkg/console"
	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/mutate"
	"github.com/spf13/cobra"
)

// NewUpgradeCommand builds `graft upgrade <dep> --to <ref>`.
func NewUpgradeCommand() *cobra.Command {
	var to string
	var skipMigration, skipVerify, force, dryRun bool
	var migrationTimeout, verifyTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "upgrade <dep> --to <ref>",
		Short: "Move a dependency to a ref, running its migrations and verify commands",
		Long: `Upgrade runs the full plan/snapshot/fetch/resolve/migrate/verify/commit
sequence for a single dependency. Any failure from fetch through verify rolls
back both graft.lock and the dependency's checkout to their pre-upgrade state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("upgrade: --to is required")
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

			result, err := mutate.Upgrade(backgroundCtx(), repoRoot, cfg, lf, name, ref, mutate.UpgradeOptions{
				DependenciesRoot: dependenciesRoot(),
				Adapter:          adapterFromEnv(),
				SkipMigration:    skipMigration,
				SkipVerify:       skipVerify,
				Force:            force,
				DryRun:           dryRun,
				MigrationTimeout: migrationTimeout,
				VerifyTimeout:    verifyTimeout,
			})

			w := cmd.OutOrStdout()
			if dryRun && err == nil {
				if len(result.Plan) == 0 {
					fmt.Fprintln(w, console.FormatInfoMessage(fmt.Sprintf("%s: no declared changes between the consumed commit and %s", name, ref)))
				}
				for _, c := range result.Plan {
					fmt.Fprintf(w, "%s\t%s\t%s\n", c.Ref, c.Type, c.Description)
				}
				return nil
			}

			switch result.State {
			case mutate.StateDone:
				fmt.Fprintln(w, console.FormatSuccessMessage(fmt.Sprintf("%s upgraded to %s (%s)", name, ref, result.Commit)))
			case mutate.StateRolledBack:
				fmt.Fprintln(w, console.FormatErrorMessage(fmt.Sprintf("%s upgrade failed and was rolled back: %v", name, err)))
			default:
				if err != nil {
					fmt.Fprintln(w, console.FormatErrorMessage(fmt.Sprintf("%s upgrade did not complete (%s): %v", name, result.State, err)))
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Ref to upgrade to (required)")
	cmd.Flags().BoolVar(&skipMigration, "skip-migration", false, "Skip running the migration command for each change in the plan")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip running the verify command after migrating")
	cmd.Flags().BoolVar(&force, "force", false, "Proceed even if the working tree is dirty")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without changing anything")
	cmd.Flags().DurationVar(&migrationTimeout, "migration-timeout", 0, "Timeout for each migration command (0 = no timeout)")
	cmd.Flags().DurationVar(&verifyTimeout, "verify-timeout", 0, "Timeout for the verify command (0 = no timeout)")
	return cmd
}
