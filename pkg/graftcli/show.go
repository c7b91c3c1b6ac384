package graftcli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/query"
	"github.com/spf13/cobra"
)

type commandSummary struct {
	Name string `json:"name"`
	Run  string `json:"run"`
}

type showResultJSON struct {
	Ref         string          `json:"ref"`
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	Migration   *commandSummary `json:"migration,omitempty"`
	Verify      *commandSummary `json:"verify,omitempty"`
}

// NewShowCommand builds `graft show <dep>@<ref>`.
func NewShowCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <dep>@<ref>",
		Short: "Show a dependency's declared change at a ref, with its resolved commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, refStr, err := splitDepRef(args[0])
			if err != nil {
				return err
			}
			ref, err := domain.NewGitRef(refStr)
			if err != nil {
				return fmt.Errorf("ref: %w", err)
			}

			repoRoot, err := findRepoRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}
			if _, ok := cfg.DependencyByName(name); !ok {
				return fmt.Errorf("show: dependency %q is not declared in %s", name, configFileName)
			}
			depCfg, err := loadDependencyConfig(repoRoot, name)
			if err != nil {
				return err
			}

			result, err := query.Show(depCfg, ref)
			if err != nil {
				return err
			}

			if jsonOut {
				out := showResultJSON{
					Ref:         result.Change.Ref.String(),
					Type:        string(result.Change.Type),
					Description: result.Change.Description,
				}
				if result.Migration != nil {
					out.Migration = &commandSummary{Name: result.Migration.Name, Run: result.Migration.Run}
				}
				if result.Verify != nil {
					out.Verify = &commandSummary{Name: result.Verify.Name, Run: result.Verify.Run}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s@%s\n", name, result.Change.Ref)
			if result.Change.Type != "" {
				fmt.Fprintf(w, "type: %s\n", result.Change.Type)
			}
			if result.Change.Description != "" {
				fmt.Fprintf(w, "description: %s\n", result.Change.Description)
			}
			if result.Migration != nil {
				fmt.Fprintf(w, "migration: %s (%s)\n", result.Migration.Name, result.Migration.Run)
			}
			if result.Verify != nil {
				fmt.Fprintf(w, "verify: %s (%s)\n", result.Verify.Name, result.Verify.Run)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output machine-readable JSON")
	return cmd
}

// splitDepRef splits "dep@ref" into its two parts.
func splitDepRef(arg string) (dep, ref string, err error) {
	i := strings.Index(arg, "@")
	if i <= 0 || i == len(arg)-1 {
		return "", "", fmt.Errorf("expected <dep>@<ref>, got %q", arg)
	}
	return arg[:i], arg[i+1:], nil
}
