package video

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"clipmaker/domain/video"
)

// fakeEngine is an in-memory engine. Trim produces "trim[<ss>,<t>]:" followed by
// the input bytes; concat produces the manifest's inputs joined in order.
type fakeEngine struct {
	mu          sync.Mutex
	loaded      bool
	loadErr     error
	loads       int
	files       map[string][]byte
	calls       []string
	written     map[string][]byte
	execs       [][]string
	execErr     map[int]error
	writeErr    map[string]error
	deleteErr   map[string]error
	skipOutput  bool
	execDelay   time.Duration
	inFlight    int
	maxInFlight int
	logFns      []func(video.LogEvent)
	progressFns []func(video.ProgressEvent)
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		files:     make(map[string][]byte),
		written:   make(map[string][]byte),
		execErr:   make(map[int]error),
		writeErr:  make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

func (e *fakeEngine) Load(ctx context.Context, res *video.CoreResources) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads++
	if e.loadErr != nil {
		return e.loadErr
	}
	e.loaded = true
	return nil
}

func (e *fakeEngine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *fakeEngine) WriteFile(ctx context.Context, name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "write "+name)
	if err := e.writeErr[name]; err != nil {
		return err
	}
	e.files[name] = append([]byte(nil), data...)
	e.written[name] = append([]byte(nil), data...)
	return nil
}

func (e *fakeEngine) ReadFile(ctx context.Context, name string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "read "+name)
	data, ok := e.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (e *fakeEngine) DeleteFile(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "delete "+name)
	if err := e.deleteErr[name]; err != nil {
		return err
	}
	if _, ok := e.files[name]; !ok {
		return fmt.Errorf("remove %s: %w", name, fs.ErrNotExist)
	}
	delete(e.files, name)
	return nil
}

func (e *fakeEngine) Exec(ctx context.Context, args []string) error {
	e.mu.Lock()
	index := len(e.execs)
	e.execs = append(e.execs, append([]string(nil), args...))
	e.calls = append(e.calls, "exec "+strings.Join(args, " "))
	e.inFlight++
	if e.inFlight > e.maxInFlight {
		e.maxInFlight = e.inFlight
	}
	delay := e.execDelay
	logFns := append([]func(video.LogEvent){}, e.logFns...)
	progressFns := append([]func(video.ProgressEvent){}, e.progressFns...)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight--
		e.mu.Unlock()
	}()

	for _, fn := range logFns {
		fn(video.LogEvent{Message: "ffmpeg " + strings.Join(args, " ")})
	}
	for _, fn := range progressFns {
		fn(video.ProgressEvent{Progress: 0.5, Time: time.Second})
	}

	if delay > 0 {
		time.Sleep(delay)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.execErr[index]; err != nil {
		return err
	}
	if e.skipOutput {
		return nil
	}

	out, err := e.render(args)
	if err != nil {
		return fmt.Errorf("%w: %w", video.ErrExecution, err)
	}
	e.files[args[len(args)-1]] = out
	return nil
}

// render must be called with e.mu held
func (e *fakeEngine) render(args []string) ([]byte, error) {
	input := argAfter(args, "-i")
	src, ok := e.files[input]
	if !ok {
		return nil, fmt.Errorf("%s: %w", input, fs.ErrNotExist)
	}

	if argAfter(args, "-f") == "concat" {
		var out []byte
		for _, line := range strings.Split(string(src), "\n") {
			name := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
			part, ok := e.files[name]
			if !ok {
				return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
			}
			out = append(out, part...)
		}
		return out, nil
	}

	prefix := fmt.Sprintf("trim[%s,%s]:", argAfter(args, "-ss"), argAfter(args, "-t"))
	return append([]byte(prefix), src...), nil
}

func (e *fakeEngine) OnLog(fn func(video.LogEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logFns = append(e.logFns, fn)
}

func (e *fakeEngine) OnProgress(fn func(video.ProgressEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progressFns = append(e.progressFns, fn)
}

func (e *fakeEngine) snapshotCalls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *fakeEngine) callsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range e.snapshotCalls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, strings.TrimPrefix(c, prefix))
		}
	}
	return out
}

func (e *fakeEngine) fileCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.files)
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// fakeLoader counts fetches. When gate is set, Fetch closes started and blocks until gate is closed.
type fakeLoader struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	gate    chan struct{}
	started chan struct{}
	once    sync.Once
}

func (l *fakeLoader) Fetch(ctx context.Context) (*video.CoreResources, error) {
	l.mu.Lock()
	call := l.calls
	l.calls++
	l.mu.Unlock()

	if l.gate != nil {
		l.once.Do(func() { close(l.started) })
		<-l.gate
	}

	if call < len(l.errs) && l.errs[call] != nil {
		return nil, l.errs[call]
	}
	return &video.CoreResources{Source: "memory"}, nil
}

func (l *fakeLoader) fetches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// newTestService wires a Service around a single fake engine and counts constructions
func newTestService(engine *fakeEngine, loader *fakeLoader) (*Service, *int) {
	constructions := 0
	var mu sync.Mutex
	lifecycle := NewLifecycle(func() video.Engine {
		mu.Lock()
		constructions++
		mu.Unlock()
		return engine
	}, loader)
	return NewService(lifecycle), &constructions
}

var errBoom = errors.New("boom")
