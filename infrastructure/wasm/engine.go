// Package wasm hosts an ffmpeg WASI module in-process with wazero.
package wasm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"clipmaker/domain/video"
	"clipmaker/infrastructure/ffmpeg"
	"clipmaker/infrastructure/filesystem"
)

// ProgramName is argv[0] for every instance
const ProgramName = "ffmpeg"

// Config holds runtime limits
type Config struct {
	// MemoryLimitPages caps linear memory in 64KiB pages; 0 keeps the wazero default.
	MemoryLimitPages uint32
	// StagingDirectory is the parent for the staging dir; the os temp dir when empty.
	StagingDirectory string
}

// Engine implements video.Engine on top of a compiled WASI module. Each Exec
// instantiates a fresh anonymous instance with the staging dir mounted at "/".
type Engine struct {
	ffmpeg.Observers

	cfg Config

	mu       sync.RWMutex
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	dir      *filesystem.StagingDir
}

// NewEngine creates an unloaded engine
func NewEngine(cfg *Config) *Engine {
	e := &Engine{}
	if cfg != nil {
		e.cfg = *cfg
	}
	return e
}

// Load compiles res.Module and prepares the staging directory
func (e *Engine) Load(ctx context.Context, res *video.CoreResources) error {
	if res == nil || len(res.Module) == 0 {
		return fmt.Errorf("no wasm module in core resources")
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if e.cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(e.cfg.MemoryLimitPages)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return fmt.Errorf("instantiate wasi: %w", err)
	}

	compiled, err := runtime.CompileModule(ctx, res.Module)
	if err != nil {
		runtime.Close(ctx)
		return fmt.Errorf("compile module: %w", err)
	}

	dir, err := filesystem.NewStagingDir(e.cfg.StagingDirectory)
	if err != nil {
		runtime.Close(ctx)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked(ctx)
	e.runtime = runtime
	e.compiled = compiled
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

// Exec runs the module's _start with args
func (e *Engine) Exec(ctx context.Context, args []string) error {
	e.mu.RLock()
	runtime, compiled, dir := e.runtime, e.compiled, e.dir
	e.mu.RUnlock()
	if dir == nil {
		return video.ErrNotInitialized
	}

	monitor := e.Monitor(args)
	modConfig := wazero.NewModuleConfig().
		WithName("").
		WithArgs(append([]string{ProgramName, "-nostdin", "-hide_banner"}, args...)...).
		WithStdout(monitor).
		WithStderr(monitor).
		WithFSConfig(wazero.NewFSConfig().WithDirMount(dir.Root(), "/"))

	mod, err := runtime.InstantiateModule(ctx, compiled, modConfig)
	monitor.Close()
	if mod != nil {
		mod.Close(ctx)
	}

	var exit *sys.ExitError
	if errors.As(err, &exit) && exit.ExitCode() == 0 {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("%w: ffmpeg %s: %w (%s)", video.ErrExecution, strings.Join(args, " "), err, monitor.LastLine())
	}
	return nil
}

// Close releases the runtime and removes the staging directory
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeLocked(context.Background())
}

func (e *Engine) closeLocked(ctx context.Context) error {
	var err error
	if e.runtime != nil {
		err = e.runtime.Close(ctx)
		e.runtime, e.compiled = nil, nil
	}
	if e.dir != nil {
		if rmErr := e.dir.RemoveAll(); rmErr != nil && err == nil {
			err = rmErr
		}
		e.dir = nil
	}
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
