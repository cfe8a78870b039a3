package cmd

import (
	"context"
	"fmt"

	appvideo "clipmaker/application/video"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the ffmpeg engine and report its state",
	Long: `Fetch the configured engine resources and initialize the engine once.

Use this to check the engine configuration before cutting clips.

Example:
  clipmaker load`,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	a, err := newApp(c, newLogger(c))
	if err != nil {
		return err
	}
	defer a.Close()

	return RunLoadWithDependencies(cmd.Context(), a.service, stdout)
}

// RunLoadWithDependencies runs the load command with injected dependencies (for testing)
func RunLoadWithDependencies(ctx context.Context, service *appvideo.Service, output OutputWriter) error {
	fmt.Fprintf(output, "Loading engine...\n")

	err := service.EnsureLoaded(ctx)
	snap := service.Publisher().Snapshot()
	if err != nil {
		fmt.Fprintf(output, "Engine failed to load: %s\n", snap.LastError)
		return err
	}

	fmt.Fprintf(output, "Engine loaded.\n")
	return nil
}
