package video

import (
	"context"
	"time"
)

// EngineState is the lifecycle state of the codec engine
type EngineState int

const (
	EngineNotLoaded EngineState = iota
	EngineLoading
	EngineLoaded
	EngineFailed
)

func (s EngineState) String() string {
	switch s {
	case EngineNotLoaded:
		return "not loaded"
	case EngineLoading:
		return "loading"
	case EngineLoaded:
		return "loaded"
	case EngineFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CoreResources are the artifacts an engine needs to initialize.
// A native engine uses Executable, a WASI engine uses Module.
type CoreResources struct {
	Source     string // base location the artifacts came from
	Executable string
	Module     []byte
}

// LogEvent is one log line emitted by the engine
type LogEvent struct {
	Message string
}

// ProgressEvent reports how far the running command has got.
// Progress is a fraction in [0, 1]; Time is the media time processed so far.
type ProgressEvent struct {
	Progress float64
	Time     time.Duration
}

// Engine defines the codec engine the orchestrator drives.
// This is a port implemented by the native and WASI adapters.
type Engine interface {
	// Load initializes the engine from its fetched resources
	Load(ctx context.Context, res *CoreResources) error

	// Loaded reports whether Load has succeeded
	Loaded() bool

	// WriteFile stores data under name in the engine's staged filesystem
	WriteFile(ctx context.Context, name string, data []byte) error

	// ReadFile returns the contents of a staged file; a missing file yields an fs.ErrNotExist error
	ReadFile(ctx context.Context, name string) ([]byte, error)

	// DeleteFile removes a staged file
	DeleteFile(ctx context.Context, name string) error

	// Exec runs one command, given as ffmpeg-style arguments without the program name
	Exec(ctx context.Context, args []string) error

	// OnLog registers an observer for engine log lines
	OnLog(fn func(LogEvent))

	// OnProgress registers an observer for progress of the running command
	OnProgress(fn func(ProgressEvent))
}

// ResourceLoader fetches the engine's core artifacts from a configured base location
type ResourceLoader interface {
	Fetch(ctx context.Context) (*CoreResources, error)
}

// ClipSaver persists a produced clip and returns where it ended up
type ClipSaver interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// SourceReader reads source videos named on the command line
type SourceReader interface {
	Exists(path string) bool
	Read(path string) ([]byte, error)
}

// ClipInfo describes a produced clip
type ClipInfo struct {
	Duration time.Duration
	Frames   int
	FPS      float64
	Width    int
	Height   int
}

// Prober inspects a clip on disk
type Prober interface {
	Probe(ctx context.Context, path string) (ClipInfo, error)
}
