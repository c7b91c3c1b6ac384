package graftcli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the full graft command tree: resolve, status,
// changes, show, fetch, sync, apply, upgrade, validate (spec.md §6.4).
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "graft",
		Short:         "A git-native dependency and change-propagation engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		NewResolveCommand(),
		NewStatusCommand(),
		NewChangesCommand(),
		NewShowCommand(),
		NewFetchCommand(),
		NewSyncCommand(),
		NewApplyCommand(),
		NewUpgradeCommand(),
		NewValidateCommand(),
	)
	return root
}
