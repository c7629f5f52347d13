package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/violetcereza/djtag-sync/pkg/core"
	"github.com/violetcereza/djtag-sync/pkg/core/status"
)

// confirm asks a yes/no question, defaulting to no
func confirm(in io.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "%s (y/N): ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(answer)) == "y"
}

var overwriteCmd = &cobra.Command{
	Use:   "overwrite <destination> <source>",
	Short: "Overwrite the tags of a library with the tags of another one",
	Long: `Commit both libraries, then replace the tags of every track of the destination library
with the tags of the same track in the source library, write and commit the destination.

This bypasses merging: changes made to the destination since the latest merge are lost.
Tags the source library does not hold are removed from the destination: overwriting id3 with
swinsian keeps only genres in the music files, deleting titles, artists and albums.`,
	Example: `% djtag overwrite swinsian id3
Are you sure you want to overwrite swinsian with id3? (y/N): n
Aborted overwrite.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		names, err := parseSources(args)
		if err != nil {
			wrapFatalln("invalid sources", err)
			return
		}
		if len(names) != 2 {
			wrapFatalln("invalid sources", status.ErrSameLibrary.WrapMessage("%s", args[0]))
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

		question := fmt.Sprintf("Are you sure you want to overwrite %s with %s?", names[0], names[1])
		if !djtagFlags.overwrite.yes && !confirm(cmd.InOrStdin(), out, question) {
			_, _ = fmt.Fprintln(out, "Aborted overwrite.")
			return
		}

		dst, src := libs[0], libs[1]
		res, err := core.Overwrite(ctx, dst.Library, src.Library)
		if err != nil {
			wrapFatalln(fmt.Sprintf("overwrite %s with %s", dst.Name(), src.Name()), err)
			return
		}
		printCommit(out, dst.Name(), res)
	},
}

func init() {
	addYesFlag(overwriteCmd)
	rootCmd.AddCommand(overwriteCmd)
}
