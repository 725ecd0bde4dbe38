// Package viz renders a live terminal view of a running sampling pass.
package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const recentCapacity = 72

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// PointMsg reports one evaluated grid point.
type PointMsg struct {
	Electrode   int
	Done, Total int
	Phi         float64
}

// FileMsg reports a completed potential file.
type FileMsg struct {
	Electrode int
	Path      string
}

// DoneMsg reports the end of the whole run.
type DoneMsg struct {
	Err error
}

// Model is the bubbletea model for a sampling run.
type Model struct {
	electrode int
	done      int
	total     int
	recent    []float64
	files     []string
	start     time.Time
	finished  bool
	err       error
}

func NewModel() Model {
	return Model{
		recent: make([]float64, 0, recentCapacity),
		start:  time.Now(),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case PointMsg:
		if msg.Electrode != m.electrode {
			m.recent = m.recent[:0]
		}
		m.electrode = msg.Electrode
		m.done = msg.Done
		m.total = msg.Total
		if len(m.recent) == recentCapacity {
			copy(m.recent, m.recent[1:])
			m.recent = m.recent[:recentCapacity-1]
		}
		m.recent = append(m.recent, msg.Phi)

	case FileMsg:
		m.files = append(m.files, msg.Path)

	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("trapfield sampling"))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	row("electrode", fmt.Sprintf("%d", m.electrode))
	if m.total > 0 {
		row("progress", fmt.Sprintf("%d / %d (%.1f%%)", m.done, m.total, 100*float64(m.done)/float64(m.total)))
	}
	row("elapsed", time.Since(m.start).Truncate(time.Second).String())
	row("files", fmt.Sprintf("%d written", len(m.files)))

	if len(m.recent) > 1 {
		graph := asciigraph.Plot(m.recent,
			asciigraph.Height(8),
			asciigraph.Width(recentCapacity),
			asciigraph.Caption("recent potential values"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	if m.finished {
		if m.err != nil {
			row("status", fmt.Sprintf("failed: %v", m.err))
		} else {
			row("status", "done")
		}
	}

	b.WriteString(helpStyle.Render("q: quit"))
	b.WriteString("\n")
	return b.String()
}

// RunWithProgram runs fn in the background while the program is on screen.
// When the UI exits first (the user quit), fn's context is canceled; either
// way fn is joined before returning, so the run error is never lost and
// nothing races on shared state.
func RunWithProgram(p *tea.Program, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		err := fn(ctx)
		p.Send(DoneMsg{Err: err})
		errc <- err
	}()

	_, uiErr := p.Run()
	cancel()
	runErr := <-errc

	if uiErr != nil {
		return uiErr
	}
	return runErr
}

// Observer adapts a running bubbletea program to the driver's observer
// interface, thinning point messages so the UI is not flooded.
type Observer struct {
	program *tea.Program
	stride  int
}

func NewObserver(p *tea.Program, gridPoints int) *Observer {
	stride := gridPoints / 200
	if stride < 1 {
		stride = 1
	}
	return &Observer{program: p, stride: stride}
}

func (o *Observer) OnPoint(electrode, done, total int, phi float64) {
	if done%o.stride != 0 && done != total {
		return
	}
	o.program.Send(PointMsg{Electrode: electrode, Done: done, Total: total, Phi: phi})
}

func (o *Observer) OnFileDone(electrode int, path string) {
	o.program.Send(FileMsg{Electrode: electrode, Path: path})
}
