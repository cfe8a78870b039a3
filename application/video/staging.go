package video

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"clipmaker/domain/video"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// stagingArea tracks every staged file one operation creates so they can all
// be released when the operation ends, whatever the exit path.
type stagingArea struct {
	engine video.Engine
	logger *zap.Logger
	names  []string
}

func newStagingArea(engine video.Engine, logger *zap.Logger) *stagingArea {
	return &stagingArea{engine: engine, logger: logger}
}

// track registers a name the engine will create, such as a command output
func (s *stagingArea) track(name string) {
	for _, n := range s.names {
		if n == name {
			return
		}
	}
	s.names = append(s.names, name)
}

func (s *stagingArea) untrack(name string) {
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			return
		}
	}
}

// write stages data under name
func (s *stagingArea) write(ctx context.Context, name string, data []byte) error {
	if err := video.ValidateStagedName(name); err != nil {
		return fmt.Errorf("%w: write %s: %w", video.ErrIO, name, err)
	}
	if !s.engine.Loaded() {
		return fmt.Errorf("%w: write %s: %w", video.ErrIO, name, video.ErrNotInitialized)
	}

	s.track(name)
	if err := s.engine.WriteFile(ctx, name, data); err != nil {
		return fmt.Errorf("%w: write %s: %w", video.ErrIO, name, err)
	}

	s.logger.Debug("staged file", zap.String("name", name), zap.Int("bytes", len(data)))
	return nil
}

// read returns the staged bytes for name
func (s *stagingArea) read(ctx context.Context, name string) ([]byte, error) {
	if !s.engine.Loaded() {
		return nil, fmt.Errorf("%w: read %s: %w", video.ErrIO, name, video.ErrNotInitialized)
	}

	data, err := s.engine.ReadFile(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", video.ErrNotFound, name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", video.ErrIO, name, err)
	}

	return data, nil
}

// remove deletes name now and stops tracking it. Failures are logged only.
func (s *stagingArea) remove(ctx context.Context, name string) {
	s.untrack(name)
	if err := s.delete(ctx, name); err != nil {
		s.logger.Warn("failed to delete staged file", zap.String("name", name), zap.Error(err))
	}
}

// release deletes every tracked file. Failures are logged and returned
// combined so they can be inspected, but callers never propagate them.
func (s *stagingArea) release(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	var errs error
	for _, name := range s.names {
		errs = multierr.Append(errs, s.delete(ctx, name))
	}
	s.names = nil

	if errs != nil {
		s.logger.Warn("failed to release staged files", zap.Error(errs))
	}
	return errs
}

func (s *stagingArea) delete(ctx context.Context, name string) error {
	err := s.engine.DeleteFile(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		// never created, e.g. an output of a command that failed
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", video.ErrIO, name, err)
	}
	return nil
}
