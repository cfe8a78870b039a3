package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	appvideo "clipmaker/application/video"
	"clipmaker/domain/video"
	"clipmaker/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

var (
	trimSourcePath string
	trimStart      string
	trimDuration   string
	trimEnd        string
	trimOutput     string
	trimUpload     bool
)

var trimCmd = &cobra.Command{
	Use:   "trim",
	Short: "Trim a video to a start offset and duration",
	Long: `Cut a clip out of a single video without re-encoding.

Times are seconds (12.5) or [HH:]MM:SS[.fff] timestamps. Give either
--duration or --end. The clip is saved into the configured output directory.

Example:
  clipmaker trim --source door.mp4 --start 00:01:30 --duration 45 --output porch.mp4
  clipmaker trim --source door.mp4 --start 90 --end 135 --upload`,
	RunE: runTrim,
}

func init() {
	rootCmd.AddCommand(trimCmd)
	trimCmd.Flags().StringVar(&trimSourcePath, "source", "", "Path to source video file (required)")
	trimCmd.Flags().StringVar(&trimStart, "start", "0", "Start offset")
	trimCmd.Flags().StringVar(&trimDuration, "duration", "", "Clip length")
	trimCmd.Flags().StringVar(&trimEnd, "end", "", "End offset (instead of --duration)")
	trimCmd.Flags().StringVar(&trimOutput, "output", video.DefaultOutputName, "Output file name")
	trimCmd.Flags().BoolVar(&trimUpload, "upload", false, "Also upload the clip to Google Drive")
	trimCmd.MarkFlagRequired("source")
	trimCmd.MarkFlagsMutuallyExclusive("duration", "end")
	trimCmd.MarkFlagsOneRequired("duration", "end")
}

func runTrim(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	savers, err := newSavers(ctx, c, trimUpload)
	if err != nil {
		return err
	}

	a, err := newApp(c, newLogger(c))
	if err != nil {
		return err
	}
	defer a.Close()

	return RunTrimWithDependencies(
		ctx,
		a.service,
		filesystem.NewStore(c.Output.Directory),
		savers,
		TrimInput{
			SourcePath: trimSourcePath,
			Start:      trimStart,
			Duration:   trimDuration,
			End:        trimEnd,
			OutputName: trimOutput,
		},
		stdout,
	)
}

// TrimInput holds the raw command line values for one trim
type TrimInput struct {
	SourcePath string
	Start      string
	Duration   string
	End        string
	OutputName string
}

// window parses the timestamps into a trim window
func (in TrimInput) window() (video.TrimWindow, error) {
	start, err := video.ParseSeconds(in.Start)
	if err != nil {
		return video.TrimWindow{}, &video.ValidationError{Field: "start", Message: err.Error()}
	}

	if in.End != "" {
		end, err := video.ParseSeconds(in.End)
		if err != nil {
			return video.TrimWindow{}, &video.ValidationError{Field: "end", Message: err.Error()}
		}
		if end < start {
			return video.TrimWindow{}, &video.ValidationError{Field: "end", Message: "must not be before start"}
		}
		return video.TrimWindow{Start: start, Duration: end - start}, nil
	}

	duration, err := video.ParseSeconds(in.Duration)
	if err != nil {
		return video.TrimWindow{}, &video.ValidationError{Field: "duration", Message: err.Error()}
	}
	return video.TrimWindow{Start: start, Duration: duration}, nil
}

// RunTrimWithDependencies runs the trim command with injected dependencies (for testing)
func RunTrimWithDependencies(
	ctx context.Context,
	service *appvideo.Service,
	reader video.SourceReader,
	savers []video.ClipSaver,
	input TrimInput,
	output OutputWriter,
) error {
	window, err := input.window()
	if err != nil {
		return err
	}

	if !reader.Exists(input.SourcePath) {
		return fmt.Errorf("source file not found: %s", input.SourcePath)
	}
	source, err := reader.Read(input.SourcePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Trimming %s from %ss for %ss...\n",
		filepath.Base(input.SourcePath), video.FormatSeconds(window.Start), video.FormatSeconds(window.Duration))

	var clip []byte
	err = withProgress(service.Publisher(), output, func() error {
		var err error
		clip, err = service.TrimVideo(ctx, source, window.Start, window.Duration, input.OutputName)
		return err
	})
	if err != nil {
		return err
	}

	name := input.OutputName
	if name == "" {
		name = video.DefaultOutputName
	}
	return saveClip(ctx, savers, name, clip, output)
}
