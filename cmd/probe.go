package cmd

import (
	"context"
	"fmt"

	"clipmaker/domain/video"
	"clipmaker/infrastructure/probe"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <clip>",
	Short: "Show the length and size of a clip",
	Long: `Report duration, frame count, frame rate and resolution of a video file.

Uses ffprobe by default; builds with -tags=probe read the file with OpenCV.

Example:
  clipmaker probe clips/porch.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	return RunProbeWithDependencies(cmd.Context(), probe.NewProber(), args[0], stdout)
}

// RunProbeWithDependencies runs the probe command with injected dependencies (for testing)
func RunProbeWithDependencies(ctx context.Context, prober video.Prober, path string, output OutputWriter) error {
	info, err := prober.Probe(ctx, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "File:       %s\n", path)
	fmt.Fprintf(output, "Duration:   %s\n", info.Duration)
	fmt.Fprintf(output, "Frames:     %d\n", info.Frames)
	fmt.Fprintf(output, "Frame rate: %.2f fps\n", info.FPS)
	fmt.Fprintf(output, "Resolution: %dx%d\n", info.Width, info.Height)
	return nil
}
