package cmd

import (
	"context"
	"fmt"
	"time"

	"clipmaker/application/clip"
	appvideo "clipmaker/application/video"
	"clipmaker/domain/recording"
	"clipmaker/domain/video"

	"github.com/spf13/cobra"
)

var (
	clipStream   string
	clipFrom     string
	clipTo       string
	clipIDs      []string
	clipPick     bool
	clipStart    string
	clipDuration string
	clipOutput   string
	clipUpload   bool
)

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Build a clip from recorder archives",
	Long: `Select recordings from the recorder, join them oldest first and save the clip.

Select with --stream and a wall-clock --from/--to range (RFC 3339), with
explicit --id values, or interactively with --pick. A --from/--to range also
trims the joined video to exactly that range unless --start/--duration is given.

Example:
  clipmaker clip --stream doorbell --from 2025-05-01T20:04:00Z --to 2025-05-01T20:07:30Z
  clipmaker clip --pick --output porch.mp4 --upload`,
	RunE: runClip,
}

func init() {
	rootCmd.AddCommand(clipCmd)
	clipCmd.Flags().StringVar(&clipStream, "stream", "", "Stream id to take recordings from")
	clipCmd.Flags().StringVar(&clipFrom, "from", "", "Clip start time (RFC 3339)")
	clipCmd.Flags().StringVar(&clipTo, "to", "", "Clip end time (RFC 3339)")
	clipCmd.Flags().StringSliceVar(&clipIDs, "id", nil, "Recording id (repeatable)")
	clipCmd.Flags().BoolVar(&clipPick, "pick", false, "Choose recordings interactively")
	clipCmd.Flags().StringVar(&clipStart, "start", "", "Trim start offset in the joined video")
	clipCmd.Flags().StringVar(&clipDuration, "duration", "", "Trim length")
	clipCmd.Flags().StringVar(&clipOutput, "output", video.DefaultOutputName, "Output file name")
	clipCmd.Flags().BoolVar(&clipUpload, "upload", false, "Also upload the clip to Google Drive")
	clipCmd.MarkFlagsRequiredTogether("start", "duration")
	clipCmd.MarkFlagsMutuallyExclusive("pick", "id")
}

func runClip(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	source, err := newRecorderClient()
	if err != nil {
		return err
	}
	savers, err := newSavers(ctx, c, clipUpload)
	if err != nil {
		return err
	}

	a, err := newApp(c, newLogger(c))
	if err != nil {
		return err
	}
	defer a.Close()

	var prompter Prompter
	if clipPick {
		prompter = DefaultPrompter
	}

	return RunClipWithDependencies(ctx, source, a.service, savers, prompter, ClipInput{
		StreamID:   clipStream,
		From:       clipFrom,
		To:         clipTo,
		IDs:        clipIDs,
		Start:      clipStart,
		Duration:   clipDuration,
		OutputName: clipOutput,
	}, stdout)
}

// ClipInput holds the raw command line values for one clip
type ClipInput struct {
	StreamID   string
	From       string
	To         string
	IDs        []string
	Start      string
	Duration   string
	OutputName string
}

// RunClipWithDependencies runs the clip command with injected dependencies (for testing).
// A non-nil prompter asks the user which recordings to join.
func RunClipWithDependencies(
	ctx context.Context,
	source recording.Source,
	service *appvideo.Service,
	savers []video.ClipSaver,
	prompter Prompter,
	input ClipInput,
	output OutputWriter,
) error {
	from, err := parseWallClock("from", input.From)
	if err != nil {
		return err
	}
	to, err := parseWallClock("to", input.To)
	if err != nil {
		return err
	}

	trim, err := ConcatInput{Start: input.Start, Duration: input.Duration}.trim()
	if err != nil {
		return err
	}

	ids := input.IDs
	if prompter != nil {
		ids, err = pickRecordings(ctx, source, prompter, input.StreamID, from, to)
		if err != nil {
			return err
		}
	}

	svc := clip.NewService(source, progressConcatenator{service: service, output: output}, output, savers...)
	_, err = svc.Run(ctx, clip.Input{
		StreamID:   input.StreamID,
		From:       from,
		To:         to,
		IDs:        ids,
		Trim:       trim,
		OutputName: input.OutputName,
	})
	return err
}

// progressConcatenator runs each concatenation under the progress view
type progressConcatenator struct {
	service *appvideo.Service
	output  OutputWriter
}

func (p progressConcatenator) Concatenate(ctx context.Context, req *video.ConcatRequest) ([]byte, error) {
	var out []byte
	err := withProgress(p.service.Publisher(), p.output, func() error {
		var err error
		out, err = p.service.Concatenate(ctx, req)
		return err
	})
	return out, err
}

func pickRecordings(ctx context.Context, source recording.Source, prompter Prompter, streamID string, from, to time.Time) ([]string, error) {
	all, err := source.Recordings(ctx)
	if err != nil {
		return nil, err
	}

	recs := recording.Filter(all, streamID, from, to)
	if len(recs) == 0 {
		return nil, &video.ValidationError{Field: "recordings", Message: "no recordings match the selection"}
	}
	recording.SortByStart(recs)

	options := make([]string, len(recs))
	byOption := make(map[string]string, len(recs))
	for i, r := range recs {
		options[i] = fmt.Sprintf("%s  %s  %s", r.StreamName, r.Start, r.Duration())
		byOption[options[i]] = r.ID
	}

	chosen, err := prompter.MultiSelect("Which recordings should be joined?", options)
	if err != nil {
		return nil, fmt.Errorf("prompt cancelled")
	}
	if len(chosen) == 0 {
		return nil, &video.ValidationError{Field: "recordings", Message: "no recordings selected"}
	}

	ids := make([]string, 0, len(chosen))
	for _, o := range chosen {
		ids = append(ids, byOption[o])
	}
	return ids, nil
}

func parseWallClock(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &video.ValidationError{Field: field, Message: "must be an RFC 3339 time like 2025-05-01T20:04:00Z"}
	}
	return t, nil
}
