package video

import (
	"context"
	"sync"
	"time"

	"clipmaker/domain/video"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation labels published while an operation runs
const (
	LabelTrim       = "Trimming video..."
	LabelConcat     = "Concatenating videos..."
	LabelConcatTrim = "Trimming concatenated video..."
)

// Service coordinates trim and concatenate operations against the engine owned by a Lifecycle.
// Operations run one at a time: fixed staged names and the single progress slot
// are only safe for one operation at a time.
type Service struct {
	lifecycle *Lifecycle
	logger    *zap.Logger
	active    sync.Mutex
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used for operation start and finish
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new Service
func NewService(lifecycle *Lifecycle, opts ...ServiceOption) *Service {
	s := &Service{
		lifecycle: lifecycle,
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EnsureLoaded loads the engine if it is not loaded yet
func (s *Service) EnsureLoaded(ctx context.Context) error {
	return s.lifecycle.EnsureLoaded(ctx)
}

// Publisher returns the state publisher for engine and operation progress
func (s *Service) Publisher() *Publisher {
	return s.lifecycle.Publisher()
}

// TrimVideo cuts durationSeconds of source starting at startSeconds, without re-encoding.
// An empty outputName defaults to output.mp4.
func (s *Service) TrimVideo(ctx context.Context, source []byte, startSeconds, durationSeconds float64, outputName string) ([]byte, error) {
	req, err := video.NewTrimRequest(source, startSeconds, durationSeconds, outputName)
	if err != nil {
		return nil, err
	}
	return s.Trim(ctx, req)
}

// ConcatenateVideos joins sources in order and, when trim is set, trims the joined timeline.
// An empty outputName defaults to output.mp4.
func (s *Service) ConcatenateVideos(ctx context.Context, sources [][]byte, trim *video.TrimWindow, outputName string) ([]byte, error) {
	req, err := video.NewConcatRequest(sources, trim, outputName)
	if err != nil {
		return nil, err
	}
	return s.Concatenate(ctx, req)
}

// Trim runs a validated TrimRequest
func (s *Service) Trim(ctx context.Context, req *video.TrimRequest) (out []byte, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	engine, err := s.loadedEngine(ctx)
	if err != nil {
		return nil, err
	}

	op := s.begin(LabelTrim)
	defer func() { op.end(err) }()

	stage := newStagingArea(engine, op.logger)
	defer stage.release(ctx)

	if err := stage.write(ctx, video.TrimInputName, req.Source); err != nil {
		return nil, err
	}

	stage.track(req.OutputName)
	args := video.TrimArgs(req.Window.Start, req.Window.Duration, video.TrimInputName, req.OutputName)
	if err := engine.Exec(ctx, args); err != nil {
		return nil, err
	}

	return stage.read(ctx, req.OutputName)
}

// Concatenate runs a validated ConcatRequest
func (s *Service) Concatenate(ctx context.Context, req *video.ConcatRequest) (out []byte, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	engine, err := s.loadedEngine(ctx)
	if err != nil {
		return nil, err
	}

	op := s.begin(LabelConcat)
	defer func() { op.end(err) }()

	stage := newStagingArea(engine, op.logger)
	defer stage.release(ctx)

	names := make([]string, 0, len(req.Sources))
	for i, src := range req.Sources {
		name := video.ConcatInputName(i)
		if err := stage.write(ctx, name, src); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	if err := stage.write(ctx, video.ConcatManifestName, video.ConcatManifest(names)); err != nil {
		return nil, err
	}

	concatOutput := req.OutputName
	if req.Trim != nil {
		concatOutput = video.ConcatIntermediateName
	}

	stage.track(concatOutput)
	if err := engine.Exec(ctx, video.ConcatArgs(video.ConcatManifestName, concatOutput)); err != nil {
		return nil, err
	}

	if req.Trim != nil {
		s.Publisher().relabel(LabelConcatTrim)

		stage.track(req.OutputName)
		args := video.TrimArgs(req.Trim.Start, req.Trim.Duration, concatOutput, req.OutputName)
		if err := engine.Exec(ctx, args); err != nil {
			return nil, err
		}
		stage.remove(ctx, concatOutput)
	}

	return stage.read(ctx, req.OutputName)
}

func (s *Service) loadedEngine(ctx context.Context) (video.Engine, error) {
	if err := s.lifecycle.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	// EnsureLoaded succeeded, so this only fails if the lifecycle is misused
	return s.lifecycle.Engine()
}

// operation is the scope of one running trim or concat
type operation struct {
	service *Service
	logger  *zap.Logger
	started time.Time
}

// begin waits for any running operation to finish, then claims the operation slot
func (s *Service) begin(label string) *operation {
	s.active.Lock()

	id := uuid.NewString()
	s.Publisher().beginOperation(id, label)

	logger := s.logger.With(zap.String("operation", label), zap.String("operation_id", id))
	logger.Info("operation started")

	return &operation{service: s, logger: logger, started: time.Now()}
}

func (op *operation) end(err error) {
	op.service.Publisher().endOperation()
	op.service.active.Unlock()

	elapsed := zap.Duration("elapsed", time.Since(op.started))
	if err != nil {
		op.logger.Warn("operation failed", elapsed, zap.Error(err))
		return
	}
	op.logger.Info("operation finished", elapsed)
}
