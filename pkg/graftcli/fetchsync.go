package graftcli

import (
	"fmt"

	"github.com/graft-dev/graft/pkg/console"
	"github.com/graft-dev/graft/pkg/mutate"
	"github.com/spf13/cobra"
)

func renderOutcomes(cmd *cobra.Command, verb string, outcomes []mutate.OpOutcome) bool {
	var lines []console.ReportLine
	anyFailed := false
	for _, o := range outcomes {
		if o.Err != nil {
			anyFailed = true
			lines = append(lines, console.ReportLine{Message: fmt.Sprintf("%s %s: %v", verb, o.Name, o.Err)})
			continue
		}
		lines = append(lines, console.ReportLine{OK: true, Message: fmt.Sprintf("%s %s", verb, o.Name)})
	}
	fmt.Fprint(cmd.OutOrStdout(), console.RenderReport(lines))
	return anyFailed
}

// NewFetchCommand builds `graft fetch [dep...]`.
func NewFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [dep...]",
		Short: "Update remote-tracking refs for one or more dependencies",
		Long:  "Fetch updates remote-tracking refs only; it never touches a checkout's working tree or graft.lock.",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := findRepoRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}
			outcomes, err := mutate.Fetch(backgroundCtx(), repoRoot, cfg, args, mutate.FetchSyncOptions{
				DependenciesRoot: dependenciesRoot(),
				Adapter:          adapterFromEnv(),
			})
			renderOutcomes(cmd, "fetch", outcomes)
			return err
		},
	}
	return cmd
}

// NewSyncCommand builds `graft sync [dep...]`.
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [dep...]",
		Short: "Bring each dependency's checkout to agree with graft.lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := findRepoRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}
			lf, err := loadLock(repoRoot)
			if err != nil {
				return err
			}
			outcomes, err := mutate.Sync(backgroundCtx(), repoRoot, cfg, lf, args, mutate.FetchSyncOptions{
				DependenciesRoot: dependenciesRoot(),
				Adapter:          adapterFromEnv(),
			})
			failed := renderOutcomes(cmd, "sync", outcomes)
			if err != nil {
				return err
			}
			if failed {
				return fmt.Errorf("sync: one or more dependencies failed")
			}
			return nil
		},
	}
	return cmd
}
