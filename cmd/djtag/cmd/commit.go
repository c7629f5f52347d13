package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/violetcereza/djtag-sync/pkg/core"
)

func printCommit(out io.Writer, name string, res *core.CommitResult) {
	if res.Skipped {
		_, _ = fmt.Fprintf(out, "%s: nothing to commit (%d tracks)\n", name, res.Snapshot.Len())
		return
	}
	_, _ = fmt.Fprintf(out, "%s: committed %d tracks at %s (%d changed, %d new, %d removed)\n",
		name, res.Snapshot.Len(), res.Snapshot.Timestamp().Format(timeFormat),
		res.Diff.Len(), len(res.Diff.AddedPaths), len(res.Diff.RemovedPaths))
}

func commitAll(ctx context.Context, out io.Writer, libs openedLibraries) error {
	for _, lib := range libs {
		res, err := lib.Commit(ctx)
		if err != nil {
			return fmt.Errorf("commit %s: %w", lib.Name(), err)
		}
		printCommit(out, lib.Name(), res)
	}
	return nil
}

var commitCmd = &cobra.Command{
	Use:   "commit [sources...]",
	Short: "Commit the current tags of libraries",
	Long: `Scan libraries and record their current tags in their history.

Sources are: id3, swinsian. When no source is given, all sources are committed.
Nothing is recorded when a library did not change since its latest commit.`,
	Example: `% djtag commit id3
ID3Library: committed 1192 tracks at 2024-03-01 10:00:00.000000000 (3 changed, 0 new, 0 removed)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		names, err := parseSources(args)
		if err != nil {
			wrapFatalln("invalid sources", err)
			return
		}
		inputs := newCliOptionInputs(config, &djtagFlags, cmd.OutOrStdout())
		libs, err := inputs.openLibraries(ctx, names, false)
		if err != nil {
			wrapFatalln("open libraries", err)
			return
		}
		defer libs.Close()

		if err = commitAll(ctx, cmd.OutOrStdout(), libs); err != nil {
			wrapFatalln("commit", err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)
}
