package graftcli

import (
	"fmt"
	"path/filepath"

	"github.com/graft-dev/graft/pkg/console"
	"github.com/graft-dev/graft/pkg/resolve"
	"github.com/spf13/cobra"
)

// NewResolveCommand builds `graft resolve`.
func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Bring every declared dependency onto disk and write graft.lock",
		Long: `Resolve walks every dependency declared in graft.yaml, in alphabetical order,
cloning or updating its submodule checkout under .graft/<name>/ and resolving its
declared ref to a commit. graft.lock is (re)written only if every dependency
resolved successfully; a partial failure leaves the existing lock untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := findRepoRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}

			reconcileInterrupted(filepath.Join(repoRoot, lockFileName))

			results, err := resolve.Resolve(backgroundCtx(), repoRoot, cfg, resolve.Options{
				DependenciesRoot: dependenciesRoot(),
				Adapter:          adapterFromEnv(),
			})
			if err != nil {
				return err
			}

			var lines []console.ReportLine
			failed := false
			for _, r := range results {
				switch r.Status {
				case resolve.StatusFailed:
					failed = true
					lines = append(lines, console.ReportLine{Message: fmt.Sprintf("%s: %v", r.Name, r.Err)})
				default:
					lines = append(lines, console.ReportLine{OK: true, Message: fmt.Sprintf("%s: %s (%s)", r.Name, r.Status, r.Commit)})
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), console.RenderReport(lines))
			if failed {
				return fmt.Errorf("resolve: one or more dependencies failed; graft.lock left untouched")
			}
			return nil
		},
	}
	return cmd
}
