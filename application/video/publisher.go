package video

import (
	"sync"
	"time"

	"clipmaker/domain/video"
)

// EventKind identifies what changed in a published Event
type EventKind int

const (
	// EventEngine is published when the loaded/loading/error flags change
	EventEngine EventKind = iota
	// EventOperation is published when an operation starts, changes step or finishes
	EventOperation
	// EventProgress is published for every engine progress report during an operation
	EventProgress
	// EventLog is published for every engine log line
	EventLog
)

// Snapshot is a read-only copy of the published state
type Snapshot struct {
	Loaded           bool
	Loading          bool
	LastError        string
	Progress         float64 // 0..100
	CurrentOperation string  // empty when idle
	OperationID      string
}

// Event is delivered to subscribers after every state change
type Event struct {
	Kind    EventKind
	State   Snapshot
	Message string        // engine log line, for EventLog
	Elapsed time.Duration // media time processed, for EventProgress
}

// Publisher holds the observable engine and operation state.
// There is a single operation slot; Service serializes operations so the
// slot always belongs to the one running operation.
type Publisher struct {
	mu     sync.RWMutex
	state  Snapshot
	subs   map[uint64]func(Event)
	nextID uint64
}

// NewPublisher creates an idle publisher
func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[uint64]func(Event))}
}

// Snapshot returns a copy of the current state
func (p *Publisher) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Loaded reports whether the engine finished loading
func (p *Publisher) Loaded() bool { return p.Snapshot().Loaded }

// Loading reports whether an engine load is in flight
func (p *Publisher) Loading() bool { return p.Snapshot().Loading }

// LastError returns the message of the last failed load, or "" after a successful one
func (p *Publisher) LastError() string { return p.Snapshot().LastError }

// Progress returns the running operation's progress in percent
func (p *Publisher) Progress() float64 { return p.Snapshot().Progress }

// CurrentOperation returns the running operation's label, if any
func (p *Publisher) CurrentOperation() (string, bool) {
	s := p.Snapshot()
	return s.CurrentOperation, s.CurrentOperation != ""
}

// Subscribe registers fn for every future Event and returns a function that removes it.
// fn runs synchronously on the goroutine that caused the change and must not block.
func (p *Publisher) Subscribe(fn func(Event)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Publisher) loadStarted() {
	p.update(EventEngine, func(s *Snapshot) bool {
		s.Loading = true
		return true
	})
}

func (p *Publisher) loadFinished(err error) {
	p.update(EventEngine, func(s *Snapshot) bool {
		s.Loading = false
		if err != nil {
			s.Loaded = false
			s.LastError = err.Error()
			return true
		}
		s.Loaded = true
		s.LastError = ""
		return true
	})
}

func (p *Publisher) beginOperation(id, label string) {
	p.update(EventOperation, func(s *Snapshot) bool {
		s.OperationID = id
		s.CurrentOperation = label
		s.Progress = 0
		return true
	})
}

func (p *Publisher) relabel(label string) {
	p.update(EventOperation, func(s *Snapshot) bool {
		if s.CurrentOperation == "" {
			return false
		}
		s.CurrentOperation = label
		return true
	})
}

func (p *Publisher) endOperation() {
	p.update(EventOperation, func(s *Snapshot) bool {
		s.OperationID = ""
		s.CurrentOperation = ""
		s.Progress = 0
		return true
	})
}

// progress rescales an engine fraction to percent. Reports that arrive
// while no operation is running are dropped so an idle slot stays at 0.
func (p *Publisher) progress(ev video.ProgressEvent) {
	percent := ev.Progress * 100
	switch {
	case percent < 0:
		percent = 0
	case percent > 100:
		percent = 100
	}

	p.mu.Lock()
	if p.state.CurrentOperation == "" {
		p.mu.Unlock()
		return
	}
	p.state.Progress = percent
	snap := p.state
	subs := p.subscribers()
	p.mu.Unlock()

	notify(subs, Event{Kind: EventProgress, State: snap, Elapsed: ev.Time})
}

func (p *Publisher) log(line string) {
	p.mu.RLock()
	snap := p.state
	subs := p.subscribers()
	p.mu.RUnlock()

	notify(subs, Event{Kind: EventLog, State: snap, Message: line})
}

func (p *Publisher) update(kind EventKind, mutate func(*Snapshot) bool) {
	p.mu.Lock()
	if !mutate(&p.state) {
		p.mu.Unlock()
		return
	}
	snap := p.state
	subs := p.subscribers()
	p.mu.Unlock()

	notify(subs, Event{Kind: kind, State: snap})
}

// subscribers must be called with p.mu held
func (p *Publisher) subscribers() []func(Event) {
	subs := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
