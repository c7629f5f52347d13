package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/go-units"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/violetcereza/djtag-sync/pkg/model"
	"github.com/violetcereza/djtag-sync/pkg/storage"
)

const timeFormat = "2006-01-02 15:04:05.000000000"

type commitEntry struct {
	Library   string `json:"library"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Tracks    int    `json:"tracks"`
	Size      int    `json:"size"`
	HumanSize string `json:"humanSize"`
}

// listCommits describes the commits of a library, newest first
func listCommits(ctx context.Context, lib *openedLibrary) ([]commitEntry, error) {
	entries := lib.History().Entries()
	res := make([]commitEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		b, err := storage.ReadAll(ctx, lib.store, model.GetCommitKey(entries[i]))
		if err != nil {
			return nil, err
		}
		snapshot, err := model.UnmarshalSnapshot(b)
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", model.GetCommitKey(entries[i]), err)
		}
		res = append(res, commitEntry{
			Library:   lib.Name(),
			ID:        snapshot.ID(),
			Timestamp: snapshot.Timestamp().Format(timeFormat),
			Tracks:    snapshot.Len(),
			Size:      len(b),
			HumanSize: units.HumanSize(float64(len(b))),
		})
	}
	return res, nil
}

func printCommits(out io.Writer, name string, commits []commitEntry) {
	_, _ = fmt.Fprintln(out, name)
	if len(commits) == 0 {
		_, _ = fmt.Fprintln(out, "  no commit yet")
		return
	}
	for _, c := range commits {
		_, _ = fmt.Fprintf(out, "  %s , %s , %d tracks , %s\n", c.ID, c.Timestamp, c.Tracks, c.HumanSize)
	}
}

var logCmd = &cobra.Command{
	Use:   "log [sources...]",
	Short: "List the commits of libraries",
	Long: `List the commits of libraries, newest first.

Sources are: id3, swinsian. When no source is given, all sources are listed.`,
	Example: `% djtag log id3
ID3Library
  2dJzlkFi6ZW5HzxHDqC1jVcOWBW , 2024-03-01 10:00:00.000000000 , 1192 tracks , 312.4kB`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		names, err := parseSources(args)
		if err != nil {
			wrapFatalln("invalid sources", err)
			return
		}
		out := cmd.OutOrStdout()
		inputs := newCliOptionInputs(config, &djtagFlags, out)
		libs, err := inputs.openLibraries(ctx, names, true)
		if err != nil {
			wrapFatalln("open libraries", err)
			return
		}
		defer libs.Close()

		all := make([]commitEntry, 0)
		for _, lib := range libs {
			commits, err := listCommits(ctx, lib)
			if err != nil {
				wrapFatalln("list commits of "+lib.Name(), err)
				return
			}
			if !djtagFlags.log.json {
				printCommits(out, lib.Name(), commits)
				continue
			}
			all = append(all, commits...)
		}
		if djtagFlags.log.json {
			enc := jsoniter.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err = enc.Encode(all); err != nil {
				wrapFatalln("encode commits", err)
				return
			}
		}
	},
}

func init() {
	addJSONFlag(logCmd)
	rootCmd.AddCommand(logCmd)
}
