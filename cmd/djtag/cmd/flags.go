package cmd

import (
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		musicFolder string
		swinsianDB  string
		logLevel    string
		logFile     string
		noColor     bool
	}
	status struct {
		unified bool
		context int
	}
	log struct {
		json bool
	}
	overwrite struct {
		yes bool
	}
}

var djtagFlags = flagsT{}

func addMusicFolderFlag(cmd *cobra.Command) string {
	musicFolder := "music-folder"
	cmd.PersistentFlags().StringVar(&djtagFlags.root.musicFolder, musicFolder, "",
		`The folder holding the music files (defaults to "~/Music")`)
	return musicFolder
}

func addSwinsianDBFlag(cmd *cobra.Command) string {
	swinsianDB := "swinsian-db"
	cmd.PersistentFlags().StringVar(&djtagFlags.root.swinsianDB, swinsianDB, "",
		`The Swinsian library database (defaults to "~/Library/Application Support/Swinsian/Library.sqlite")`)
	return swinsianDB
}

func addLogLevelFlag(cmd *cobra.Command) string {
	logLevel := "log-level"
	cmd.PersistentFlags().StringVar(&djtagFlags.root.logLevel, logLevel, "",
		`The logging level: debug, info, warn, error or none (defaults to "`+defaultLogLevel+`")`)
	return logLevel
}

func addLogFileFlag(cmd *cobra.Command) string {
	logFile := "log-file"
	cmd.PersistentFlags().StringVar(&djtagFlags.root.logFile, logFile, "",
		"Send logs to this file, rotated, instead of stderr")
	return logFile
}

func addNoColorFlag(cmd *cobra.Command) string {
	noColor := "no-color"
	cmd.PersistentFlags().BoolVar(&djtagFlags.root.noColor, noColor, false, "Disable colored output")
	return noColor
}

func addUnifiedFlag(cmd *cobra.Command) string {
	unified := "unified"
	cmd.Flags().BoolVarP(&djtagFlags.status.unified, unified, "u", false,
		"Show a unified diff of the tags of every changed track")
	return unified
}

func addContextFlag(cmd *cobra.Command) string {
	c := "context"
	cmd.Flags().IntVar(&djtagFlags.status.context, c, 3, "Lines of context in unified diffs")
	return c
}

func addJSONFlag(cmd *cobra.Command) string {
	j := "json"
	cmd.Flags().BoolVar(&djtagFlags.log.json, j, false, "Output the history as JSON")
	return j
}

func addYesFlag(cmd *cobra.Command) string {
	yes := "yes"
	cmd.Flags().BoolVarP(&djtagFlags.overwrite.yes, yes, "y", false, "Do not ask for confirmation")
	return yes
}
