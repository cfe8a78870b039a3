// Package probe reports the length, frame count and size of a clip.
//
// The default build asks ffprobe. Building with -tags=probe reads the file
// through OpenCV instead.
package probe

import (
	"clipmaker/domain/video"
	"clipmaker/infrastructure/ffmpeg"
)

// Prober implements video.Prober
type Prober struct {
	runner  ffmpeg.CommandRunner
	ffprobe string
}

// ProberOption is a functional option for configuring Prober
type ProberOption func(*Prober)

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner ffmpeg.CommandRunner) ProberOption {
	return func(p *Prober) {
		p.runner = runner
	}
}

// WithFFprobePath sets the ffprobe binary
func WithFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		p.ffprobe = path
	}
}

// NewProber creates a prober
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		runner:  &ffmpeg.ExecCommandRunner{},
		ffprobe: "ffprobe",
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Ensure Prober implements video.Prober
var _ video.Prober = (*Prober)(nil)
