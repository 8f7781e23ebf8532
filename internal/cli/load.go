package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"stepload/internal/logging"
	"stepload/internal/pipeline"
	"stepload/internal/registry"
	"stepload/internal/vcs"
)

func newLoadCmd(flags *globalFlags) *cobra.Command {
	var manifest string
	var all bool
	cmd := &cobra.Command{
		Use:   "load [features...]",
		Short: "Run the full loading pipeline and report what was loaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, flags)
			if err != nil {
				return err
			}
			if len(args) == 0 && !all {
				args = e.cfg.Features
			}
			if all {
				args = nil
			}
			session := e.session(registry.ScanSource{})
			res, err := session.Initialize(cmd.Context(), args)
			if err != nil {
				return err
			}
			printLoadResult(cmd, e, res)
			if manifest != "" {
				m := session.Registry().Manifest(res.RunID)
				if rev, err := (vcs.Client{}).Revision(cmd.Context(), e.cfg.Root); err == nil {
					m.Commit, m.Branch, m.Dirty = rev.Commit, rev.Branch, rev.Dirty
				} else {
					e.logger.Debug("no git revision for manifest", logging.Err(err))
				}
				if err := registry.WriteManifest(manifest, m); err != nil {
					return fmt.Errorf("write manifest: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", manifest)
			}
			if len(res.Load.Failed) > 0 {
				return fmt.Errorf("%d step files failed to load", len(res.Load.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&manifest, "manifest", "", "Write the loaded steps to a JSON manifest")
	cmd.Flags().BoolVar(&all, "all", false, "Load every indexed step file")
	return cmd
}

func printLoadResult(cmd *cobra.Command, e *env, res pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (%s mode)\n", e.style.Heading("Run"), res.RunID, res.Mode)
	if res.Mode != "all" {
		fmt.Fprintf(out, "  features: %d parsed, %d skipped\n", res.Features, len(res.FeatureErrors))
		fmt.Fprintf(out, "  required steps: %d\n", res.RequiredSteps)
	}
	source := "scanned"
	if res.Index.FromCache {
		source = "cached"
	}
	fmt.Fprintf(out, "  index: %d patterns (%s)\n", res.Index.Patterns, source)
	fmt.Fprintf(out, "  loaded: %d files, %d steps\n", len(res.Load.Loaded), res.Stats.TotalSteps)
	for _, f := range res.Load.Loaded {
		fmt.Fprintf(out, "    %s %s\n", e.style.OK("+"), relTo(e.cfg.Root, f))
	}
	failed := make([]string, 0, len(res.Load.Failed))
	for f := range res.Load.Failed {
		failed = append(failed, f)
	}
	sort.Strings(failed)
	for _, f := range failed {
		fmt.Fprintf(out, "    %s %s: %v\n", e.style.Fail("x"), relTo(e.cfg.Root, f), res.Load.Failed[f])
	}
	if n := len(res.Resolution.Unmatched); n > 0 {
		fmt.Fprintf(out, "  %s\n", e.style.Warn(fmt.Sprintf("unmatched steps: %d", n)))
	}
	fmt.Fprintf(out, "  %s\n", e.style.Dim(fmt.Sprintf("parse %s, index %s, resolve %s, load %s",
		res.Timings.Parse, res.Timings.Index, res.Timings.Resolve, res.Timings.Load)))
}
