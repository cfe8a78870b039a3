package video

import (
	"errors"
	"math"
	"testing"
)

func TestNewTrimRequest(t *testing.T) {
	tests := []struct {
		name        string
		start       float64
		duration    float64
		outputName  string
		wantOutput  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid request",
			start:      5,
			duration:   10,
			outputName: "out.mp4",
			wantOutput: "out.mp4",
		},
		{
			name:       "default output name",
			start:      0,
			duration:   3,
			wantOutput: DefaultOutputName,
		},
		{
			name:       "zero duration is passed through",
			start:      1,
			duration:   0,
			outputName: "out.mp4",
			wantOutput: "out.mp4",
		},
		{
			name:        "negative start",
			start:       -1,
			duration:    3,
			wantErr:     true,
			errContains: "start must be",
		},
		{
			name:        "negative duration",
			start:       1,
			duration:    -3,
			wantErr:     true,
			errContains: "duration must be",
		},
		{
			name:        "infinite duration",
			start:       1,
			duration:    math.Inf(1),
			wantErr:     true,
			errContains: "duration must be",
		},
		{
			name:        "output with path separator",
			start:       1,
			duration:    2,
			outputName:  "../escape.mp4",
			wantErr:     true,
			errContains: "path separators",
		},
		{
			name:        "output collides with staged input",
			start:       1,
			duration:    2,
			outputName:  TrimInputName,
			wantErr:     true,
			errContains: "collides",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTrimRequest([]byte("video"), tt.start, tt.duration, tt.outputName)

			if tt.wantErr {
				if err == nil {
					t.Errorf("NewTrimRequest() expected error, got nil")
					return
				}
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("NewTrimRequest() error = %v, want ErrInvalidArgument", err)
				}
				if tt.errContains != "" && !contains(err.Error(), tt.errContains) {
					t.Errorf("NewTrimRequest() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}

			if err != nil {
				t.Errorf("NewTrimRequest() unexpected error: %v", err)
				return
			}

			if got.OutputName != tt.wantOutput {
				t.Errorf("NewTrimRequest() OutputName = %q, want %q", got.OutputName, tt.wantOutput)
			}
		})
	}
}

func TestNewConcatRequest(t *testing.T) {
	two := [][]byte{[]byte("a"), []byte("b")}

	tests := []struct {
		name        string
		sources     [][]byte
		trim        *TrimWindow
		outputName  string
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid without trim",
			sources: two,
		},
		{
			name:       "valid with trim",
			sources:    two,
			trim:       &TrimWindow{Start: 2, Duration: 4},
			outputName: "out.mp4",
		},
		{
			name:        "empty source list",
			sources:     nil,
			wantErr:     true,
			errContains: "at least one source video is required",
		},
		{
			name:        "invalid trim window",
			sources:     two,
			trim:        &TrimWindow{Start: math.NaN(), Duration: 4},
			wantErr:     true,
			errContains: "start must be",
		},
		{
			name:        "output collides with manifest",
			sources:     two,
			outputName:  ConcatManifestName,
			wantErr:     true,
			errContains: "collides",
		},
		{
			name:        "output collides with an input",
			sources:     two,
			outputName:  "input1.mp4",
			wantErr:     true,
			errContains: "input1.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConcatRequest(tt.sources, tt.trim, tt.outputName)

			if tt.wantErr {
				if err == nil {
					t.Errorf("NewConcatRequest() expected error, got nil")
					return
				}
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("NewConcatRequest() error = %v, want ErrInvalidArgument", err)
				}
				if tt.errContains != "" && !contains(err.Error(), tt.errContains) {
					t.Errorf("NewConcatRequest() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}

			if err != nil {
				t.Errorf("NewConcatRequest() unexpected error: %v", err)
				return
			}
			if tt.outputName == "" && got.OutputName != DefaultOutputName {
				t.Errorf("NewConcatRequest() OutputName = %q, want %q", got.OutputName, DefaultOutputName)
			}
		})
	}
}

func TestTrimWindow_End(t *testing.T) {
	w := TrimWindow{Start: 2, Duration: 4}
	if got := w.End(); got != 6 {
		t.Errorf("TrimWindow.End() = %v, want 6", got)
	}
}

func TestConcatInputName(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "input0.mp4"},
		{1, "input1.mp4"},
		{12, "input12.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ConcatInputName(tt.index); got != tt.want {
				t.Errorf("ConcatInputName(%d) = %q, want %q", tt.index, got, tt.want)
			}
		})
	}
}
