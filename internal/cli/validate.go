package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the stepload config",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd, flags)
			if err != nil {
				return fmt.Errorf("validation failed:\n%w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (root %s)\n", e.style.OK("Config OK"), e.cfg.Root)
			return nil
		},
	}
}

// noArgs rejects positional arguments as a usage error.
func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("unexpected arguments: %v", args)
	}
	return nil
}
