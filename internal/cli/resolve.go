package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stepload/internal/registry"
)

func newResolveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [features...]",
		Short: "Print the step files the given features need",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, flags)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = e.cfg.Features
			}
			res, err := e.session(registry.ScanSource{}).Resolve(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d steps from %d features\n", e.style.Heading("Required:"), res.RequiredSteps, res.Features)
			fmt.Fprintln(out, e.style.Heading("Files:"))
			for _, f := range res.Files {
				fmt.Fprintf(out, "  %s\n", relTo(e.cfg.Root, f))
			}
			if len(res.Resolution.Unmatched) > 0 {
				fmt.Fprintln(out, e.style.Warn(fmt.Sprintf("Unmatched (%d):", len(res.Resolution.Unmatched))))
				for _, step := range res.Resolution.Unmatched {
					fmt.Fprintf(out, "  %s\n", step)
				}
			}
			return nil
		},
	}
}

// relTo shortens path relative to root when it lies inside it.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
