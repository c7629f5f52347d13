// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "djtag",
	Short: "djtag keeps the tags of music libraries in sync",
	Long: `djtag keeps the genre tags of DJ music libraries in sync.

Every library (the ID3 tags of a music folder, a Swinsian library) keeps its own history of commits,
stored under the .djtag folder of the music folder.

Merging a library into another replays the changes committed by the first one since the latest merge.
Tracks are always matched by path.
`,
	SilenceUsage: true,
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addMusicFolderFlag(rootCmd)
	addSwinsianDBFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addLogFileFlag(rootCmd)
	addNoColorFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault(musicFolderKey, defaultMusicFolder())
	viper.SetDefault(swinsianDBKey, defaultSwinsianDB())
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logFileKey, "")
	viper.SetDefault(noColorKey, false)

	if os.Getenv("DJTAG_CONFIG") != "" {
		// Use config file from the environment.
		viper.SetConfigFile(os.Getenv("DJTAG_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.djtag")
		viper.SetConfigName("djtag")
	}

	viper.SetEnvPrefix("djtag")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
		return
	}
	config.setDjtagParams(&djtagFlags)
}
