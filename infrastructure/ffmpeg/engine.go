package ffmpeg

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"clipmaker/domain/video"
	"clipmaker/infrastructure/filesystem"
)

// Engine implements video.Engine by running an ffmpeg executable inside a
// private staging directory, which serves as the engine's filesystem.
type Engine struct {
	Observers

	runner     CommandRunner
	stagingDir string

	mu         sync.RWMutex
	executable string
	dir        *filesystem.StagingDir
}

// EngineOption is a functional option for configuring Engine
type EngineOption func(*Engine)

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) EngineOption {
	return func(e *Engine) {
		e.runner = runner
	}
}

// WithStagingDirectory sets the parent directory for staged files
func WithStagingDirectory(dir string) EngineOption {
	return func(e *Engine) {
		e.stagingDir = dir
	}
}

// NewEngine creates an unloaded native ffmpeg engine
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		runner: &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Load verifies the located executable runs and creates the staging directory
func (e *Engine) Load(ctx context.Context, res *video.CoreResources) error {
	if res == nil || res.Executable == "" {
		return fmt.Errorf("no ffmpeg executable in core resources")
	}

	if _, err := e.runner.Output(ctx, res.Executable, "-version"); err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}

	dir, err := filesystem.NewStagingDir(e.stagingDir)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dir != nil {
		_ = e.dir.RemoveAll()
	}
	e.executable = res.Executable
	e.dir = dir
	return nil
}

// Loaded reports whether Load has succeeded
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dir != nil
}

// WriteFile implements video.Engine
func (e *Engine) WriteFile(ctx context.Context, name string, data []byte) error {
	dir, err := e.staging()
	if err != nil {
		return err
	}
	return dir.Write(name, data)
}

// ReadFile implements video.Engine
func (e *Engine) ReadFile(ctx context.Context, name string) ([]byte, error) {
	dir, err := e.staging()
	if err != nil {
		return nil, err
	}
	return dir.Read(name)
}

// DeleteFile implements video.Engine
func (e *Engine) DeleteFile(ctx context.Context, name string) error {
	dir, err := e.staging()
	if err != nil {
		return err
	}
	return dir.Delete(name)
}

// Exec runs ffmpeg with args in the staging directory
func (e *Engine) Exec(ctx context.Context, args []string) error {
	dir, err := e.staging()
	if err != nil {
		return err
	}

	e.mu.RLock()
	executable := e.executable
	e.mu.RUnlock()

	monitor := e.Monitor(args)
	full := append([]string{"-nostdin", "-hide_banner"}, args...)
	err = e.runner.Run(ctx, dir.Root(), monitor, executable, full...)
	monitor.Close()

	if err != nil {
		return fmt.Errorf("%w: ffmpeg %s: %w (%s)", video.ErrExecution, strings.Join(args, " "), err, monitor.LastLine())
	}
	return nil
}

// Close removes the staging directory and everything left in it
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dir == nil {
		return nil
	}
	err := e.dir.RemoveAll()
	e.dir = nil
	return err
}

func (e *Engine) staging() (*filesystem.StagingDir, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.dir == nil {
		return nil, video.ErrNotInitialized
	}
	return e.dir, nil
}

// Ensure Engine implements video.Engine
var _ video.Engine = (*Engine)(nil)
