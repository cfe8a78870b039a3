package video

import (
	"math"
)

// DefaultOutputName is used when a caller does not name the produced clip
const DefaultOutputName = "output.mp4"

// TrimWindow selects a range of a timeline by start offset and duration, in seconds
type TrimWindow struct {
	Start    float64
	Duration float64
}

// End returns the exclusive end offset of the window
func (w TrimWindow) End() float64 {
	return w.Start + w.Duration
}

// Validate rejects negative or non-finite values. A zero duration is passed
// through to the engine unchanged.
func (w TrimWindow) Validate() error {
	if !finite(w.Start) || w.Start < 0 {
		return &ValidationError{Field: "start", Message: "must be a finite, non-negative number of seconds"}
	}
	if !finite(w.Duration) || w.Duration < 0 {
		return &ValidationError{Field: "duration", Message: "must be a finite, non-negative number of seconds"}
	}
	return nil
}

// TrimRequest represents a request to cut one clip out of a single source buffer
type TrimRequest struct {
	Source     []byte
	Window     TrimWindow
	OutputName string
}

// NewTrimRequest creates a validated TrimRequest, defaulting the output name
func NewTrimRequest(source []byte, start, duration float64, outputName string) (*TrimRequest, error) {
	if outputName == "" {
		outputName = DefaultOutputName
	}

	req := &TrimRequest{
		Source:     source,
		Window:     TrimWindow{Start: start, Duration: duration},
		OutputName: outputName,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks the window and that the output does not collide with the staged input
func (r *TrimRequest) Validate() error {
	if err := r.Window.Validate(); err != nil {
		return err
	}
	if err := ValidateStagedName(r.OutputName); err != nil {
		return err
	}
	if r.OutputName == TrimInputName {
		return &ValidationError{Field: "output name", Message: "collides with the staged input " + TrimInputName}
	}
	return nil
}

// ConcatRequest represents a request to join sources in order, optionally trimming the joined timeline
type ConcatRequest struct {
	Sources    [][]byte
	Trim       *TrimWindow
	OutputName string
}

// NewConcatRequest creates a validated ConcatRequest, defaulting the output name
func NewConcatRequest(sources [][]byte, trim *TrimWindow, outputName string) (*ConcatRequest, error) {
	if outputName == "" {
		outputName = DefaultOutputName
	}

	req := &ConcatRequest{
		Sources:    sources,
		Trim:       trim,
		OutputName: outputName,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks the source list, the optional trim window and the output name
func (r *ConcatRequest) Validate() error {
	if len(r.Sources) == 0 {
		return &ValidationError{Field: "sources", Message: "at least one source video is required"}
	}
	if r.Trim != nil {
		if err := r.Trim.Validate(); err != nil {
			return err
		}
	}
	if err := ValidateStagedName(r.OutputName); err != nil {
		return err
	}
	if r.OutputName == ConcatManifestName || r.OutputName == ConcatIntermediateName {
		return &ValidationError{Field: "output name", Message: "collides with a staged working file"}
	}
	for i := range r.Sources {
		if r.OutputName == ConcatInputName(i) {
			return &ValidationError{Field: "output name", Message: "collides with staged input " + ConcatInputName(i)}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
