package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"stepload/internal/registry"
	"stepload/internal/stepindex"
)

func newIndexCmd(flags *globalFlags) *cobra.Command {
	var list, rebuild bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the step pattern index",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd, flags)
			if err != nil {
				return err
			}
			session := e.session(registry.ScanSource{})
			if rebuild {
				if err := stepindex.ClearCache(session.Builder().CachePath()); err != nil {
					return err
				}
			}
			idx, info, err := session.Builder().Build(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := "scanned " + fmt.Sprint(info.FilesScanned) + " files"
			if info.FromCache {
				source = "from cache"
			}
			fmt.Fprintf(out, "%s %d patterns in %d files (%s)\n",
				e.style.Heading("Step index:"), idx.Len(), len(idx.Files()), source)
			fmt.Fprintf(out, "%s\n", e.style.Dim(info.CachePath))
			if list {
				renderIndex(cmd, e, idx)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List every pattern and its files")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Ignore the cache and rescan step files")
	return cmd
}

func renderIndex(cmd *cobra.Command, e *env, idx *stepindex.Index) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	if !e.style.enabled {
		t.SetStyle(table.StyleLight)
	}
	t.AppendHeader(table.Row{"Pattern", "Files"})
	for _, entry := range idx.Entries() {
		files := make([]string, 0, len(entry.Files))
		for _, f := range entry.Files {
			files = append(files, relTo(e.cfg.Root, f))
		}
		t.AppendRow(table.Row{entry.Pattern, strings.Join(files, "\n")})
	}
	t.Render()
}
