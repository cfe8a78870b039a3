package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	appvideo "clipmaker/application/video"
	"clipmaker/domain/video"
	"clipmaker/infrastructure/config"
	"clipmaker/infrastructure/drive"
	"clipmaker/infrastructure/ffmpeg"
	"clipmaker/infrastructure/filesystem"
	"clipmaker/infrastructure/resource"
	"clipmaker/infrastructure/wasm"

	"go.uber.org/zap"
)

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

// closableEngine is an engine that owns resources released at exit
type closableEngine interface {
	video.Engine
	io.Closer
}

// app is the assembled video stack for one command invocation
type app struct {
	service *appvideo.Service
	logger  *zap.Logger

	mu     sync.Mutex
	engine closableEngine
}

// newApp assembles the lifecycle and service for the configured backend
func newApp(c *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{logger: logger}

	var loader video.ResourceLoader
	var factory appvideo.EngineFactory
	switch c.Engine.Backend {
	case config.BackendWasm:
		loader = resource.NewModuleFetcher(c.Engine.BaseLocation, c.Engine.Module)
		factory = a.track(func() closableEngine {
			return wasm.NewEngine(&wasm.Config{
				MemoryLimitPages: c.Engine.MemoryLimitPages,
				StagingDirectory: c.Engine.StagingDirectory,
			})
		})
	case config.BackendNative:
		loader = resource.NewExecutableLocator(c.Engine.BaseLocation, c.Engine.Executable)
		factory = a.track(func() closableEngine {
			return ffmpeg.NewEngine(ffmpeg.WithStagingDirectory(c.Engine.StagingDirectory))
		})
	default:
		return nil, fmt.Errorf("%w: unknown engine backend %q", config.ErrInvalidConfig, c.Engine.Backend)
	}

	lifecycle := appvideo.NewLifecycle(factory, loader, appvideo.WithLogger(logger))
	a.service = appvideo.NewService(lifecycle, appvideo.WithServiceLogger(logger))
	return a, nil
}

func (a *app) track(build func() closableEngine) appvideo.EngineFactory {
	return func() video.Engine {
		e := build()
		a.mu.Lock()
		a.engine = e
		a.mu.Unlock()
		return e
	}
}

// Close releases the engine's staging area if one was built
func (a *app) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.engine == nil {
		return nil
	}
	err := a.engine.Close()
	a.engine = nil
	if err != nil {
		a.logger.Warn("failed to release engine", zap.Error(err))
	}
	return err
}

// newSavers returns the local store and, when upload is set, the Drive folder
func newSavers(ctx context.Context, c *config.Config, upload bool) ([]video.ClipSaver, error) {
	savers := []video.ClipSaver{filesystem.NewStore(c.Output.Directory)}
	if !upload {
		return savers, nil
	}

	client, err := drive.NewClient(ctx, c.Drive.CredentialsFile, c.Drive.FolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Drive client: %w", err)
	}
	return append(savers, client), nil
}

// saveClip hands data to every saver and reports each location
func saveClip(ctx context.Context, savers []video.ClipSaver, name string, data []byte, output OutputWriter) error {
	for _, saver := range savers {
		location, err := saver.Save(ctx, name, data)
		if err != nil {
			return fmt.Errorf("save failed: %w", err)
		}
		fmt.Fprintf(output, "Saved: %s\n", location)
	}
	return nil
}

// stdout is the destination for command output
var stdout OutputWriter = os.Stdout
