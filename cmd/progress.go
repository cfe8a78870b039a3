package cmd

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	appvideo "clipmaker/application/video"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// withProgress runs fn while rendering publisher events to output: a progress
// bar on a terminal, plain lines otherwise.
func withProgress(publisher *appvideo.Publisher, output OutputWriter, fn func() error) error {
	if f, ok := output.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return runProgressView(publisher, f, fn)
	}

	reporter := newPlainReporter(output)
	unsubscribe := publisher.Subscribe(reporter.handle)
	defer unsubscribe()
	return fn()
}

// plainReporter prints operation changes and every tenth percent of progress
type plainReporter struct {
	mu     sync.Mutex
	output OutputWriter
	label  string
	step   int
}

func newPlainReporter(output OutputWriter) *plainReporter {
	return &plainReporter{output: output, step: -1}
}

func (r *plainReporter) handle(ev appvideo.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case appvideo.EventOperation:
		if ev.State.CurrentOperation != "" && ev.State.CurrentOperation != r.label {
			fmt.Fprintf(r.output, "%s\n", ev.State.CurrentOperation)
			r.step = -1
		}
		r.label = ev.State.CurrentOperation
	case appvideo.EventProgress:
		step := int(math.Floor(ev.State.Progress / 10))
		if step > r.step {
			r.step = step
			fmt.Fprintf(r.output, "  %3.0f%%\n", float64(step*10))
		}
	}
}

type eventMsg appvideo.Event

type doneMsg struct{ err error }

// progressModel is the bubbletea model for one running operation
type progressModel struct {
	bar      progress.Model
	label    string
	percent  float64
	lastLine string
	err      error
	done     bool
}

func newProgressModel() progressModel {
	return progressModel{bar: progress.New(progress.WithDefaultGradient())}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, 80)
	case eventMsg:
		switch msg.Kind {
		case appvideo.EventOperation:
			if msg.State.CurrentOperation != "" {
				m.label = msg.State.CurrentOperation
			}
			m.percent = msg.State.Progress / 100
		case appvideo.EventProgress:
			m.percent = msg.State.Progress / 100
		case appvideo.EventLog:
			m.lastLine = msg.Message
		case appvideo.EventEngine:
			if msg.State.Loading {
				m.label = "Loading engine..."
			}
		}
	case doneMsg:
		m.done = true
		m.err = msg.err
		if msg.err == nil {
			m.percent = 1
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	label := m.label
	if label == "" {
		label = "Starting..."
	}
	b.WriteString(labelStyle.Render(label))
	b.WriteString("\n\n  ")
	b.WriteString(m.bar.ViewAs(m.percent))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString("  " + errorStyle.Render(m.err.Error()) + "\n")
	} else if m.lastLine != "" && !m.done {
		b.WriteString("  " + logStyle.Render(truncate(m.lastLine, 76)) + "\n")
	}
	return b.String()
}

func runProgressView(publisher *appvideo.Publisher, out *os.File, fn func() error) error {
	p := tea.NewProgram(newProgressModel(), tea.WithOutput(out))

	unsubscribe := publisher.Subscribe(func(ev appvideo.Event) {
		p.Send(eventMsg(ev))
	})
	defer unsubscribe()

	result := make(chan error, 1)
	go func() {
		err := fn()
		result <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress view: %w", err)
	}
	return <-result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
