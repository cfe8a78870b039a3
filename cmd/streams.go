package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"clipmaker/domain/recording"
	"clipmaker/infrastructure/recorder"

	"github.com/spf13/cobra"
)

var recordingsStream string

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List the recorder's camera streams",
	Long: `List camera streams known to the configured recorder.

Example:
  clipmaker streams`,
	RunE: runStreams,
}

var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "List archived recordings",
	Long: `List the recorder's archived recordings, oldest first.

Example:
  clipmaker recordings --stream doorbell`,
	RunE: runRecordings,
}

func init() {
	rootCmd.AddCommand(streamsCmd)
	rootCmd.AddCommand(recordingsCmd)
	recordingsCmd.Flags().StringVar(&recordingsStream, "stream", "", "Only show recordings of this stream id")
}

func newRecorderClient() (*recorder.Client, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	return recorder.NewClient(c.Recorder.URL)
}

func runStreams(cmd *cobra.Command, args []string) error {
	client, err := newRecorderClient()
	if err != nil {
		return err
	}
	return RunStreamsWithDependencies(cmd.Context(), client, stdout)
}

func runRecordings(cmd *cobra.Command, args []string) error {
	client, err := newRecorderClient()
	if err != nil {
		return err
	}
	return RunRecordingsWithDependencies(cmd.Context(), client, recordingsStream, stdout)
}

// RunStreamsWithDependencies runs the streams command with injected dependencies (for testing)
func RunStreamsWithDependencies(ctx context.Context, source recording.Source, output OutputWriter) error {
	streams, err := source.Streams(ctx)
	if err != nil {
		return err
	}

	if len(streams) == 0 {
		fmt.Fprintln(output, "No streams found.")
		return nil
	}

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tLAST RECORDING")
	for _, s := range streams {
		status := "ok"
		if !s.Active {
			status = "inactive"
		} else if s.InErr {
			status = "error"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, status, s.LastRecording)
	}
	return w.Flush()
}

// RunRecordingsWithDependencies runs the recordings command with injected dependencies (for testing)
func RunRecordingsWithDependencies(ctx context.Context, source recording.Source, streamID string, output OutputWriter) error {
	all, err := source.Recordings(ctx)
	if err != nil {
		return err
	}

	recs := recording.Filter(all, streamID, time.Time{}, time.Time{})
	if len(recs) == 0 {
		fmt.Fprintln(output, "No recordings found.")
		return nil
	}
	recording.SortByStart(recs)

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTREAM\tSTART\tLENGTH\tMOTION")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.StreamID, r.Start, r.Duration(), motionSummary(r))
	}
	return w.Flush()
}

func motionSummary(r recording.Recording) string {
	if !r.PerformedMotionDetect {
		return "-"
	}
	if len(r.Motion) == 0 {
		return "none"
	}
	peak := r.Motion[0].S
	for _, m := range r.Motion[1:] {
		peak = max(peak, m.S)
	}
	return fmt.Sprintf("%d events (peak %.0f)", len(r.Motion), peak)
}
