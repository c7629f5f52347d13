package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/violetcereza/djtag-sync/pkg/dlogger"
)

const (
	musicFolderKey = "music_folder"
	swinsianDBKey  = "swinsian_db"
	logLevelKey    = "log_level"
	logFileKey     = "log_file"
	noColorKey     = "no_color"

	defaultLogLevel = dlogger.LogLevelWarn
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	MusicFolder string `json:"music_folder" yaml:"music_folder" mapstructure:"music_folder"` // Folder holding the music files and the .djtag history
	SwinsianDB  string `json:"swinsian_db" yaml:"swinsian_db" mapstructure:"swinsian_db"`    // Path to the Swinsian library database
	LogLevel    string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFile     string `json:"log_file" yaml:"log_file" mapstructure:"log_file"`
	NoColor     bool   `json:"no_color" yaml:"no_color" mapstructure:"no_color"`
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// setDjtagParams fills in the flags not set on the command line
func (c *CLIConfig) setDjtagParams(flags *flagsT) {
	if flags.root.musicFolder == "" {
		flags.root.musicFolder = c.MusicFolder
	}
	if flags.root.swinsianDB == "" {
		flags.root.swinsianDB = c.SwinsianDB
	}
	if flags.root.logLevel == "" {
		flags.root.logLevel = c.LogLevel
	}
	if flags.root.logFile == "" {
		flags.root.logFile = c.LogFile
	}
	if c.NoColor {
		flags.root.noColor = true
	}
	flags.root.musicFolder = expandHome(flags.root.musicFolder)
	flags.root.swinsianDB = expandHome(flags.root.swinsianDB)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func expandHome(pth string) string {
	if pth == "~" {
		return homeDir()
	}
	if len(pth) > 1 && pth[0] == '~' && pth[1] == filepath.Separator {
		return filepath.Join(homeDir(), pth[2:])
	}
	return pth
}

func defaultMusicFolder() string {
	return filepath.Join(homeDir(), "Music")
}

func defaultSwinsianDB() string {
	return filepath.Join(homeDir(), "Library", "Application Support", "Swinsian", "Library.sqlite")
}
