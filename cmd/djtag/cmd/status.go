package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [sources...]",
	Short: "Show the changes of libraries since their latest commit",
	Long: `Scan libraries and show how their tags changed since their latest commit.

Sources are: id3, swinsian. When no source is given, all sources are shown.
Added tags and genres are prefixed with "+", removed ones with "-" and changed tags with "~".`,
	Example: `% djtag status id3
ID3Library
♫ Daft Punk – One More Time // +House -Disco`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		names, err := parseSources(args)
		if err != nil {
			wrapFatalln("invalid sources", err)
			return
		}
		inputs := newCliOptionInputs(config, &djtagFlags, cmd.OutOrStdout())
		libs, err := inputs.openLibraries(ctx, names, true)
		if err != nil {
			wrapFatalln("open libraries", err)
			return
		}
		defer libs.Close()

		for _, lib := range libs {
			if err = lib.PrintStatus(ctx); err != nil {
				wrapFatalln("status of "+lib.Name(), err)
				return
			}
		}
	},
}

func init() {
	addUnifiedFlag(statusCmd)
	addContextFlag(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
