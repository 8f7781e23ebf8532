package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stepload/internal/config"
	"stepload/internal/vcs"
)

func newInitCmd(flags *globalFlags) *cobra.Command {
	var gitignore bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold .stepload/config.yml",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := strings.TrimSpace(flags.configPath)
			if target == "" {
				base, err := (vcs.Client{}).RepoRoot(cmd.Context(), "")
				if err != nil {
					if base, err = os.Getwd(); err != nil {
						return fmt.Errorf("init failed: %w", err)
					}
				}
				target = config.ConfigPath(base)
			}
			target, err := filepath.Abs(target)
			if err != nil {
				return fmt.Errorf("init failed: %w", err)
			}
			if err := config.Scaffold(target); err != nil {
				return fmt.Errorf("init failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", target)

			if gitignore {
				repoRoot := config.RepoRootFromConfigPath(target)
				updated, err := addGitignoreEntry(repoRoot, config.Default().Cache.Dir)
				if err != nil {
					return fmt.Errorf("init failed: update .gitignore: %w", err)
				}
				if updated {
					fmt.Fprintf(out, "Updated %s\n", filepath.Join(repoRoot, ".gitignore"))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&gitignore, "gitignore", true, "Add the step index cache directory to .gitignore")
	return cmd
}
