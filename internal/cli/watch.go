package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stepload/internal/registry"
	"stepload/internal/stepindex"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Invalidate the step index cache whenever a step file changes",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd, flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			builder := e.session(registry.ScanSource{}).Builder()
			watcher, err := stepindex.NewWatcher(builder, func(file string) {
				fmt.Fprintf(out, "%s %s\n", e.style.Warn("changed"), relTo(e.cfg.Root, file))
			})
			if err != nil {
				return err
			}
			defer watcher.Close()
			fmt.Fprintf(out, "%s %s\n", e.style.Heading("Watching"), e.cfg.Root)
			if err := watcher.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
