// Package clip cuts a clip out of recorder archives: it picks recordings,
// downloads them, joins them through the video service and stores the result.
package clip

import (
	"context"
	"fmt"
	"io"
	"time"

	"clipmaker/domain/recording"
	"clipmaker/domain/video"
)

// Concatenator joins source videos with an optional trim
type Concatenator interface {
	Concatenate(ctx context.Context, req *video.ConcatRequest) ([]byte, error)
}

// Service orchestrates the complete clip workflow
type Service struct {
	source recording.Source
	concat Concatenator
	savers []video.ClipSaver
	output io.Writer
}

// NewService creates a new clip service. The clip is handed to every saver
// in order; the first failure stops the workflow.
func NewService(source recording.Source, concat Concatenator, output io.Writer, savers ...video.ClipSaver) *Service {
	if output == nil {
		output = io.Discard
	}
	return &Service{
		source: source,
		concat: concat,
		savers: savers,
		output: output,
	}
}

// Input selects recordings and shapes the clip
type Input struct {
	StreamID   string    // limit to one stream (optional)
	From       time.Time // clip start in wall-clock time (optional)
	To         time.Time // clip end in wall-clock time (optional)
	IDs        []string  // explicit recording ids; overrides StreamID/From/To selection
	Trim       *video.TrimWindow
	OutputName string
}

// Result contains the results of a successful clip run
type Result struct {
	Recordings []recording.Recording
	Trim       *video.TrimWindow
	Size       int
	Locations  []string
}

// Run executes the workflow
func (s *Service) Run(ctx context.Context, input Input) (*Result, error) {
	if len(s.savers) == 0 {
		return nil, fmt.Errorf("no clip destination configured")
	}

	fmt.Fprintf(s.output, "[1/4] Finding recordings...\n")
	recs, err := s.selectRecordings(ctx, input)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		fmt.Fprintf(s.output, "      %s (%s)\n", r.ID, r.Start)
	}
	fmt.Fprintln(s.output)

	fmt.Fprintf(s.output, "[2/4] Downloading %d recording(s)...\n", len(recs))
	sources := make([][]byte, 0, len(recs))
	for _, r := range recs {
		data, err := s.source.Download(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("download failed: %w", err)
		}
		sources = append(sources, data)
	}
	fmt.Fprintln(s.output)

	trim := input.Trim
	if trim == nil {
		trim = WindowFor(recs, input.From, input.To)
	}

	fmt.Fprintf(s.output, "[3/4] Joining recordings...\n")
	req, err := video.NewConcatRequest(sources, trim, input.OutputName)
	if err != nil {
		return nil, err
	}
	data, err := s.concat.Concatenate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("concatenate failed: %w", err)
	}
	fmt.Fprintf(s.output, "      %s (%.1f MB)\n\n", req.OutputName, float64(len(data))/1024/1024)

	fmt.Fprintf(s.output, "[4/4] Saving clip...\n")
	result := &Result{Recordings: recs, Trim: trim, Size: len(data)}
	for _, saver := range s.savers {
		location, err := saver.Save(ctx, req.OutputName, data)
		if err != nil {
			return nil, fmt.Errorf("save failed: %w", err)
		}
		fmt.Fprintf(s.output, "      Saved: %s\n", location)
		result.Locations = append(result.Locations, location)
	}

	return result, nil
}

func (s *Service) selectRecordings(ctx context.Context, input Input) ([]recording.Recording, error) {
	all, err := s.source.Recordings(ctx)
	if err != nil {
		return nil, err
	}

	var recs []recording.Recording
	if len(input.IDs) > 0 {
		recs = recording.SelectIDs(all, input.IDs)
		if len(recs) != len(input.IDs) {
			return nil, fmt.Errorf("%w: %d of %d requested recordings not found", video.ErrNotFound, len(input.IDs)-len(recs), len(input.IDs))
		}
	} else {
		recs = recording.Filter(all, input.StreamID, input.From, input.To)
	}

	if len(recs) == 0 {
		return nil, &video.ValidationError{Field: "recordings", Message: "no recordings match the selection"}
	}

	recording.SortByStart(recs)
	return recs, nil
}

// WindowFor converts a wall-clock [from, to) range into a trim window
// relative to the first recording. It returns nil unless both bounds are set
// and the recordings carry parseable start times.
func WindowFor(recs []recording.Recording, from, to time.Time) *video.TrimWindow {
	if len(recs) == 0 || from.IsZero() || to.IsZero() || !to.After(from) {
		return nil
	}

	first := recs[0].StartTime()
	if first.IsZero() {
		return nil
	}

	begin := from
	if begin.Before(first) {
		begin = first
	}
	if !to.After(begin) {
		return nil
	}

	return &video.TrimWindow{
		Start:    begin.Sub(first).Seconds(),
		Duration: to.Sub(begin).Seconds(),
	}
}
