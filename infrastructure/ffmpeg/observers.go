package ffmpeg

import (
	"bytes"
	"strings"
	"sync"

	"clipmaker/domain/video"
)

// Observers holds the log and progress callbacks registered on an engine
type Observers struct {
	mu       sync.RWMutex
	log      []func(video.LogEvent)
	progress []func(video.ProgressEvent)
}

// OnLog registers a log observer
func (o *Observers) OnLog(fn func(video.LogEvent)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = append(o.log, fn)
}

// OnProgress registers a progress observer
func (o *Observers) OnProgress(fn func(video.ProgressEvent)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, fn)
}

// EmitLog delivers a log line to every log observer
func (o *Observers) EmitLog(line string) {
	o.mu.RLock()
	fns := o.log
	o.mu.RUnlock()
	for _, fn := range fns {
		fn(video.LogEvent{Message: line})
	}
}

// EmitProgress delivers a progress event to every progress observer
func (o *Observers) EmitProgress(ev video.ProgressEvent) {
	o.mu.RLock()
	fns := o.progress
	o.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Monitor returns a writer for one command's stderr. Every line is emitted as
// a log event and parsed for progress. Close flushes a trailing partial line.
func (o *Observers) Monitor(args []string) *LineMonitor {
	return &LineMonitor{observers: o, parser: NewProgressParser(args)}
}

// LineMonitor splits ffmpeg output on '\n' and '\r'; ffmpeg rewrites its
// stats line in place with carriage returns.
type LineMonitor struct {
	observers *Observers
	parser    *ProgressParser
	buf       bytes.Buffer
	last      string
}

// Write implements io.Writer
func (m *LineMonitor) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' || b == '\r' {
			m.flush()
			continue
		}
		m.buf.WriteByte(b)
	}
	return len(p), nil
}

// Close flushes any buffered partial line
func (m *LineMonitor) Close() error {
	m.flush()
	return nil
}

// LastLine returns the last non-empty line seen, usually ffmpeg's error message
func (m *LineMonitor) LastLine() string {
	return m.last
}

func (m *LineMonitor) flush() {
	line := strings.TrimSpace(m.buf.String())
	m.buf.Reset()
	if line == "" {
		return
	}
	m.last = line
	m.observers.EmitLog(line)
	if ev, ok := m.parser.Parse(line); ok {
		m.observers.EmitProgress(ev)
	}
}
