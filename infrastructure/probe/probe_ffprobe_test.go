//go:build !probe

package probe

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

type mockRunner struct {
	output []byte
	err    error
	args   []string
}

func (m *mockRunner) Run(ctx context.Context, dir string, stderr io.Writer, name string, args ...string) error {
	return errors.New("not used")
}

func (m *mockRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.args = args
	return m.output, m.err
}

func TestProber_Probe(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		err        error
		wantDur    time.Duration
		wantFrames int
		wantFPS    float64
		wantWidth  int
		wantErr    bool
	}{
		{
			name:       "full output",
			output:     `{"streams":[{"width":1920,"height":1080,"avg_frame_rate":"30/1","nb_frames":"300"}],"format":{"duration":"10.000000"}}`,
			wantDur:    10 * time.Second,
			wantFrames: 300,
			wantFPS:    30,
			wantWidth:  1920,
		},
		{
			name:       "frames estimated from rate",
			output:     `{"streams":[{"width":640,"height":480,"avg_frame_rate":"25/1"}],"format":{"duration":"2.5"}}`,
			wantDur:    2500 * time.Millisecond,
			wantFrames: 63,
			wantFPS:    25,
			wantWidth:  640,
		},
		{
			name:    "no video stream",
			output:  `{"streams":[],"format":{"duration":"1.0"}}`,
			wantDur: time.Second,
		},
		{name: "ffprobe fails", err: errors.New("exit status 1"), wantErr: true},
		{name: "garbage output", output: "not json", wantErr: true},
		{name: "missing duration", output: `{"format":{}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{output: []byte(tt.output), err: tt.err}
			p := NewProber(WithCommandRunner(runner))

			info, err := p.Probe(context.Background(), "clip.mp4")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Probe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if info.Duration != tt.wantDur || info.Frames != tt.wantFrames || info.FPS != tt.wantFPS || info.Width != tt.wantWidth {
				t.Errorf("Probe() = %+v", info)
			}
			if runner.args[len(runner.args)-1] != "clip.mp4" {
				t.Errorf("ffprobe args = %v, want path last", runner.args)
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	tests := map[string]float64{
		"30/1":       30,
		"30000/1001": 30000.0 / 1001.0,
		"0/0":        0,
		"24":         24,
		"":           0,
	}
	for in, want := range tests {
		if got := parseRate(in); got != want {
			t.Errorf("parseRate(%q) = %v, want %v", in, got, want)
		}
	}
}
