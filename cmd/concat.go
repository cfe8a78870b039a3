package cmd

import (
	"context"
	"fmt"

	appvideo "clipmaker/application/video"
	"clipmaker/domain/video"
	"clipmaker/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

var (
	concatSources  []string
	concatStart    string
	concatDuration string
	concatOutput   string
	concatUpload   bool
)

var concatCmd = &cobra.Command{
	Use:   "concat [flags] SOURCE...",
	Short: "Join videos in order, optionally trimming the result",
	Long: `Concatenate source videos in the order given without re-encoding.

With --duration the joined timeline is trimmed to [--start, --start+--duration].
Sources may be given as arguments or with repeated --source flags.

Example:
  clipmaker concat door-1.mp4 door-2.mp4 --output door.mp4
  clipmaker concat door-1.mp4 door-2.mp4 --start 4:00 --duration 3:30 --upload`,
	RunE: runConcat,
}

func init() {
	rootCmd.AddCommand(concatCmd)
	concatCmd.Flags().StringSliceVar(&concatSources, "source", nil, "Source video (repeatable)")
	concatCmd.Flags().StringVar(&concatStart, "start", "", "Trim start offset in the joined video")
	concatCmd.Flags().StringVar(&concatDuration, "duration", "", "Trim length; enables trimming")
	concatCmd.Flags().StringVar(&concatOutput, "output", video.DefaultOutputName, "Output file name")
	concatCmd.Flags().BoolVar(&concatUpload, "upload", false, "Also upload the clip to Google Drive")
	concatCmd.MarkFlagsRequiredTogether("start", "duration")
}

func runConcat(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	savers, err := newSavers(ctx, c, concatUpload)
	if err != nil {
		return err
	}

	a, err := newApp(c, newLogger(c))
	if err != nil {
		return err
	}
	defer a.Close()

	return RunConcatWithDependencies(
		ctx,
		a.service,
		filesystem.NewStore(c.Output.Directory),
		savers,
		ConcatInput{
			SourcePaths: append(append([]string{}, concatSources...), args...),
			Start:       concatStart,
			Duration:    concatDuration,
			OutputName:  concatOutput,
		},
		stdout,
	)
}

// ConcatInput holds the raw command line values for one concatenation
type ConcatInput struct {
	SourcePaths []string
	Start       string // empty with Duration for no trim
	Duration    string
	OutputName  string
}

func (in ConcatInput) trim() (*video.TrimWindow, error) {
	if in.Start == "" && in.Duration == "" {
		return nil, nil
	}
	window, err := TrimInput{Start: in.Start, Duration: in.Duration}.window()
	if err != nil {
		return nil, err
	}
	return &window, nil
}

// RunConcatWithDependencies runs the concat command with injected dependencies (for testing)
func RunConcatWithDependencies(
	ctx context.Context,
	service *appvideo.Service,
	reader video.SourceReader,
	savers []video.ClipSaver,
	input ConcatInput,
	output OutputWriter,
) error {
	if len(input.SourcePaths) == 0 {
		return &video.ValidationError{Field: "sources", Message: "at least one source video is required"}
	}

	trim, err := input.trim()
	if err != nil {
		return err
	}

	sources := make([][]byte, 0, len(input.SourcePaths))
	for _, path := range input.SourcePaths {
		if !reader.Exists(path) {
			return fmt.Errorf("source file not found: %s", path)
		}
		data, err := reader.Read(path)
		if err != nil {
			return err
		}
		sources = append(sources, data)
	}

	fmt.Fprintf(output, "Joining %d video(s)...\n", len(sources))

	var clip []byte
	err = withProgress(service.Publisher(), output, func() error {
		var err error
		clip, err = service.ConcatenateVideos(ctx, sources, trim, input.OutputName)
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
