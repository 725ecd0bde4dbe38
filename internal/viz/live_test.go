package viz

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelTracksProgress(t *testing.T) {
	m := NewModel()

	next, _ := m.Update(PointMsg{Electrode: 1, Done: 4, Total: 8, Phi: 0.5})
	m = next.(Model)

	if m.electrode != 1 || m.done != 4 || m.total != 8 {
		t.Errorf("unexpected progress state: %+v", m)
	}

	view := m.View()
	if !strings.Contains(view, "4 / 8") {
		t.Errorf("view should show progress, got:\n%s", view)
	}
}

func TestModelResetsSparklineOnNewElectrode(t *testing.T) {
	m := NewModel()

	for i := 1; i <= 5; i++ {
		next, _ := m.Update(PointMsg{Electrode: 0, Done: i, Total: 8, Phi: float64(i)})
		m = next.(Model)
	}
	if len(m.recent) != 5 {
		t.Fatalf("expected 5 recent values, got %d", len(m.recent))
	}

	next, _ := m.Update(PointMsg{Electrode: 1, Done: 1, Total: 8, Phi: 9})
	m = next.(Model)
	if len(m.recent) != 1 {
		t.Errorf("sparkline should reset for a new electrode, got %d values", len(m.recent))
	}
}

func TestModelRecentRing(t *testing.T) {
	m := NewModel()
	for i := 1; i <= recentCapacity+10; i++ {
		next, _ := m.Update(PointMsg{Electrode: 0, Done: i, Total: 1000, Phi: float64(i)})
		m = next.(Model)
	}
	if len(m.recent) != recentCapacity {
		t.Errorf("expected ring capped at %d, got %d", recentCapacity, len(m.recent))
	}
	if m.recent[len(m.recent)-1] != float64(recentCapacity+10) {
		t.Errorf("expected newest value last, got %g", m.recent[len(m.recent)-1])
	}
}

func TestRunWithProgramJoinsRun(t *testing.T) {
	p := tea.NewProgram(NewModel(), tea.WithInput(strings.NewReader("")), tea.WithoutRenderer())
	want := errors.New("solve failed")

	err := RunWithProgram(p, func(ctx context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("expected run error to surface, got %v", err)
	}
}

func TestRunWithProgramCancelsOnQuit(t *testing.T) {
	p := tea.NewProgram(NewModel(), tea.WithInput(strings.NewReader("q")), tea.WithoutRenderer())

	done := make(chan error, 1)
	go func() {
		done <- RunWithProgram(p, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled after quit, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("quitting the view did not stop the run")
	}
}

func TestModelDone(t *testing.T) {
	m := NewModel()
	next, cmd := m.Update(DoneMsg{})
	m = next.(Model)

	if !m.finished {
		t.Error("expected finished state")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !strings.Contains(m.View(), "done") {
		t.Error("view should report completion")
	}
}
