package cmd

import (
	"fmt"
	"os"

	"clipmaker/infrastructure/config"
	"clipmaker/infrastructure/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "clipmaker",
	Short: "Cut and join camera recordings with ffmpeg",
	Long: `clipmaker trims and concatenates camera recordings by driving an ffmpeg
engine, either a native ffmpeg binary or an ffmpeg WASI module run in-process:

  - Trim a video to a start offset and duration
  - Concatenate videos in order, optionally trimming the result
  - Build clips straight from a recorder's archive
  - Save clips locally and optionally upload them to Google Drive

Example:
  clipmaker trim --source door.mp4 --start 12.5 --duration 30 --output porch.mp4`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config file is optional for some commands (like help)
		// Commands that need config will check and error appropriately
		cfg = nil
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// requireConfig returns the loaded configuration or an error pointing at setup
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded from %s; run 'clipmaker setup' first", cfgFile)
	}
	return cfg, nil
}

// newLogger builds the zap logger for cfg, falling back to a no-op logger
func newLogger(c *config.Config) *zap.Logger {
	if c == nil {
		return zap.NewNop()
	}
	logger, err := logging.New(&c.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; logging disabled\n", err)
		return zap.NewNop()
	}
	return logger
}
