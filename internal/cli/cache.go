package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stepload/internal/stepindex"
)

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the step index cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the step index cache file",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd, flags)
			if err != nil {
				return err
			}
			path := e.cfg.CachePath()
			if err := stepindex.ClearCache(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the step index cache location",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd, flags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.cfg.CachePath())
			return nil
		},
	})
	return cmd
}
