package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/violetcereza/djtag-sync/pkg/core"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [sources...]",
	Short: "Merge the changes of libraries into each other",
	Long: `Commit libraries, then replay onto every library the changes committed by every other one
since they were last merged.

Sources are: id3, swinsian. When no source is given, all sources are merged.
Only tracks known to both libraries are updated.`,
	Example: `% djtag merge
SwinsianLibrary: nothing to commit (1192 tracks)
ID3Library: committed 1192 tracks at 2024-03-01 10:00:00.000000000 (3 changed, 0 new, 0 removed)
ID3Library <- SwinsianLibrary: nothing to merge
SwinsianLibrary <- ID3Library: 3 tracks updated from 1 commits (0 skipped, 0 failed)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		names, err := parseSources(args)
		if err != nil {
			wrapFatalln("invalid sources", err)
			return
		}
		out := cmd.OutOrStdout()
		inputs := newCliOptionInputs(config, &djtagFlags, out)
		libs, err := inputs.openLibraries(ctx, names, false)
		if err != nil {
			wrapFatalln("open libraries", err)
			return
		}
		defer libs.Close()

		if err = commitAll(ctx, out, libs); err != nil {
			wrapFatalln("commit", err)
			return
		}
		for _, into := range libs {
			for _, from := range libs {
				if into == from {
					continue
				}
				res, err := core.Merge(ctx, into.Library, from.Library)
				if err != nil {
					wrapFatalln(fmt.Sprintf("merge %s into %s", from.Name(), into.Name()), err)
					return
				}
				_, _ = fmt.Fprintf(out, "%s <- %s: %v\n", into.Name(), from.Name(), res)
				for _, pth := range res.Failed {
					_, _ = fmt.Fprintf(out, "  failed to update %s\n", pth)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
