//go:build integration

package steps

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	appvideo "clipmaker/application/video"
	"clipmaker/domain/video"
)

// memEngine is an in-memory video.Engine. Trim output is "trim[ss,t]:" followed
// by the input, concat output is the manifest inputs joined with "+".
type memEngine struct {
	mu       sync.Mutex
	loaded   bool
	files    map[string][]byte
	execs    [][]string
	execErr  error
	onLog    []func(video.LogEvent)
	onProg   []func(video.ProgressEvent)
	loadHits int
}

func newMemEngine() *memEngine {
	return &memEngine{files: make(map[string][]byte)}
}

func (e *memEngine) Load(ctx context.Context, res *video.CoreResources) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadHits++
	e.loaded = true
	return nil
}

func (e *memEngine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *memEngine) WriteFile(ctx context.Context, name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[name] = append([]byte(nil), data...)
	return nil
}

func (e *memEngine) ReadFile(ctx context.Context, name string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, ok := e.files[name]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
	}
	return data, nil
}

func (e *memEngine) DeleteFile(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.files[name]; !ok {
		return fmt.Errorf("delete %s: %w", name, fs.ErrNotExist)
	}
	delete(e.files, name)
	return nil
}

func (e *memEngine) Exec(ctx context.Context, args []string) error {
	e.mu.Lock()
	e.execs = append(e.execs, append([]string(nil), args...))
	execErr := e.execErr
	logs, progs := e.onLog, e.onProg
	e.mu.Unlock()

	for _, fn := range logs {
		fn(video.LogEvent{Message: "ffmpeg " + strings.Join(args, " ")})
	}
	if execErr != nil {
		return fmt.Errorf("%w: %w", video.ErrExecution, execErr)
	}
	for _, fn := range progs {
		fn(video.ProgressEvent{Progress: 0.5})
		fn(video.ProgressEvent{Progress: 1})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	out := args[len(args)-1]
	switch args[0] {
	case "-ss":
		e.files[out] = append([]byte(fmt.Sprintf("trim[%s,%s]:", args[1], args[5])), e.files[args[3]]...)
	case "-f":
		var parts []string
		for _, line := range strings.Split(string(e.files[args[5]]), "\n") {
			if line == "" {
				continue
			}
			name := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
			parts = append(parts, string(e.files[name]))
		}
		e.files[out] = []byte(strings.Join(parts, "+"))
	}
	return nil
}

func (e *memEngine) OnLog(fn func(video.LogEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onLog = append(e.onLog, fn)
}

func (e *memEngine) OnProgress(fn func(video.ProgressEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onProg = append(e.onProg, fn)
}

func (e *memEngine) stagedNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.files))
	for n := range e.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// switchLoader fails until it is made available
type switchLoader struct {
	mu        sync.Mutex
	available bool
	calls     int
	gate      chan struct{}
}

func (l *switchLoader) Fetch(ctx context.Context) (*video.CoreResources, error) {
	l.mu.Lock()
	l.calls++
	available, gate := l.available, l.gate
	l.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !available {
		return nil, fmt.Errorf("ffmpeg-core.wasm: %w", os.ErrNotExist)
	}
	return &video.CoreResources{Source: "memory"}, nil
}

// memFiles is an in-memory source reader and clip saver
type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFiles() *memFiles {
	return &memFiles{files: make(map[string][]byte)}
}

func (m *memFiles) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *memFiles) Read(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, fs.ErrNotExist)
	}
	return data, nil
}

func (m *memFiles) Save(ctx context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files["clips/"+name] = data
	return "clips/" + name, nil
}

// videoStack is a service wired to an in-memory engine
type videoStack struct {
	engine        *memEngine
	loader        *switchLoader
	lifecycle     *appvideo.Lifecycle
	service       *appvideo.Service
	constructions int
}

func newVideoStack() *videoStack {
	s := &videoStack{
		engine: newMemEngine(),
		loader: &switchLoader{available: true},
	}
	s.lifecycle = appvideo.NewLifecycle(func() video.Engine {
		s.constructions++
		return s.engine
	}, s.loader)
	s.service = appvideo.NewService(s.lifecycle)
	return s
}
