package video

import (
	"context"
	"fmt"
	"sync"

	"clipmaker/domain/video"

	"go.uber.org/zap"
)

// EngineFactory constructs a fresh, unloaded engine
type EngineFactory func() video.Engine

// loadAttempt is shared by every caller that arrives while a load is in flight.
// err is written once, before done is closed.
type loadAttempt struct {
	done    chan struct{}
	err     error
	waiters int
}

// Lifecycle owns the codec engine for an assembled system: it constructs the
// engine lazily, loads it at most once and publishes its state.
type Lifecycle struct {
	newEngine EngineFactory
	resources video.ResourceLoader
	publisher *Publisher
	logger    *zap.Logger

	mu      sync.Mutex
	engine  video.Engine
	state   video.EngineState
	failure error
	attempt *loadAttempt
}

// LifecycleOption is a functional option for configuring Lifecycle
type LifecycleOption func(*Lifecycle)

// WithLogger sets the logger used for lifecycle transitions and engine log lines
func WithLogger(logger *zap.Logger) LifecycleOption {
	return func(l *Lifecycle) {
		l.logger = logger
	}
}

// WithPublisher sets the publisher that receives engine and operation state
func WithPublisher(p *Publisher) LifecycleOption {
	return func(l *Lifecycle) {
		l.publisher = p
	}
}

// NewLifecycle creates a Lifecycle; nothing is constructed or fetched until EnsureLoaded
func NewLifecycle(newEngine EngineFactory, resources video.ResourceLoader, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		newEngine: newEngine,
		resources: resources,
		publisher: NewPublisher(),
		logger:    zap.NewNop(),
		state:     video.EngineNotLoaded,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Publisher returns the publisher fed by this lifecycle
func (l *Lifecycle) Publisher() *Publisher {
	return l.publisher
}

// State returns the engine state and, when Failed, the reason
func (l *Lifecycle) State() (video.EngineState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.failure
}

// Engine returns the loaded engine, or ErrNotInitialized before a successful load
func (l *Lifecycle) Engine() (video.Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != video.EngineLoaded || l.engine == nil {
		return nil, video.ErrNotInitialized
	}
	return l.engine, nil
}

// EnsureLoaded loads the engine if needed. Concurrent callers share one attempt
// and all receive its outcome. A failed attempt is discarded so the next call
// starts over.
func (l *Lifecycle) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	if l.state == video.EngineLoaded {
		l.mu.Unlock()
		return nil
	}

	if a := l.attempt; a != nil {
		a.waiters++
		l.mu.Unlock()
		l.logger.Debug("waiting for in-flight engine load")
		select {
		case <-a.done:
			return a.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	a := &loadAttempt{done: make(chan struct{})}
	l.attempt = a
	l.state = video.EngineLoading
	l.mu.Unlock()

	l.publisher.loadStarted()
	l.logger.Info("loading engine")

	// The attempt is shared, so one caller's cancellation must not fail the others.
	err := l.load(context.WithoutCancel(ctx))

	l.mu.Lock()
	if err != nil {
		l.state = video.EngineFailed
		l.failure = err
	} else {
		l.state = video.EngineLoaded
		l.failure = nil
	}
	a.err = err
	l.attempt = nil
	l.mu.Unlock()

	l.publisher.loadFinished(err)
	close(a.done)

	if err != nil {
		l.logger.Error("engine load failed", zap.Error(err))
		return err
	}
	l.logger.Info("engine loaded")
	return nil
}

func (l *Lifecycle) load(ctx context.Context) error {
	engine := l.construct()

	res, err := l.resources.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: fetch core resources: %w", video.ErrLoad, err)
	}

	if err := engine.Load(ctx, res); err != nil {
		return fmt.Errorf("%w: initialize engine from %s: %w", video.ErrLoad, res.Source, err)
	}

	return nil
}

// construct creates the engine and registers observers the first time it is called
func (l *Lifecycle) construct() video.Engine {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.engine != nil {
		return l.engine
	}

	engine := l.newEngine()
	engine.OnLog(l.handleLog)
	engine.OnProgress(l.publisher.progress)
	l.engine = engine
	return engine
}

func (l *Lifecycle) handleLog(ev video.LogEvent) {
	l.logger.Debug("engine", zap.String("line", ev.Message))
	l.publisher.log(ev.Message)
}
