package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alienxp03/debatecast/internal/core"
	"github.com/alienxp03/debatecast/internal/renderer"
)

type sliceStream struct {
	events []core.Event
}

func (s *sliceStream) Next() (core.Event, error) {
	if len(s.events) == 0 {
		return core.Event{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *sliceStream) Close() error { return nil }

func newTestModel(t *testing.T, events ...core.Event) (Model, *renderer.Renderer) {
	t.Helper()
	opener := renderer.OpenerFunc(func(ctx context.Context, topic string) (renderer.EventStream, error) {
		return &sliceStream{events: append([]core.Event(nil), events...)}, nil
	})
	r := renderer.New(opener, renderer.WithInterval(0))
	t.Cleanup(r.Close)

	m := NewModel(context.Background(), r, "")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), r
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestEnterWithBlankTopicDoesNothing(t *testing.T) {
	m, _ := newTestModel(t)
	m.input.SetValue("   ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("blank topic should not produce a command")
	}
	if m.inFlight != 0 {
		t.Errorf("inFlight = %d, want 0", m.inFlight)
	}
	if !m.canSubmit() {
		t.Error("submit should stay enabled")
	}
}

func TestSubmitShowsDebate(t *testing.T) {
	m, r := newTestModel(t,
		core.Event{Type: core.EventAgentStance, Name: "Agent A", Stance: "Cities should ban cars"},
		core.Event{Type: core.EventArgument, Name: "Agent A", Content: "Hello world"},
	)

	m.input.SetValue("Ban cars?")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	if m.canSubmit() {
		t.Error("submit should be disabled while a debate is running")
	}

	m.input.SetValue("another")
	if _, again := update(t, m, tea.KeyMsg{Type: tea.KeyEnter}); again != nil {
		t.Error("second submit while running should be ignored")
	}

	msg := cmd()
	r.Wait()
	m, _ = update(t, m, msg)

	if !m.canSubmit() {
		t.Error("submit should be re-enabled after the debate")
	}
	view := m.View()
	for _, want := range []string{"Ban cars?", "Agent A", "Cities should ban cars", "Hello world", "Debate concluded.", "Initializing debate..."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "Debate concluded.") > strings.Index(view, "Hello world") {
		t.Error("transcript should list the most recent entry first")
	}
}

func TestThinkingAgentInStatusBar(t *testing.T) {
	m, r := newTestModel(t)

	s := r.Session()
	s.Begin("topic")
	s.Apply(core.Event{Type: core.EventAgentStance, Name: "Agent B", Stance: "Against"})
	s.Apply(core.Event{Type: core.EventStatus, Content: "Agent B is thinking..."})
	m, _ = update(t, m, refreshMsg{})

	if len(m.snap.Agents) != 1 || !m.snap.Agents[0].Thinking {
		t.Fatalf("expected Agent B thinking, got %+v", m.snap.Agents)
	}
	if !strings.Contains(m.renderStatusBar(), "Agent B is thinking...") {
		t.Errorf("status bar = %q", m.renderStatusBar())
	}
}

func TestSubmitDoneErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		visible bool
	}{
		{"none", nil, false},
		{"canceled", context.Canceled, false},
		{"empty topic", renderer.ErrEmptyTopic, false},
		{"other", errors.New("disk full"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			m.inFlight = 1
			m, _ = update(t, m, submitDoneMsg{err: tt.err})

			if m.inFlight != 0 {
				t.Errorf("inFlight = %d, want 0", m.inFlight)
			}
			if got := m.lastErr != nil; got != tt.visible {
				t.Errorf("lastErr = %v, visible %v", m.lastErr, tt.visible)
			}
		})
	}
}

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			_, cmd := update(t, m, tt.msg)
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
		})
	}
}

func TestInitialTopicSubmitsOnStart(t *testing.T) {
	opener := renderer.OpenerFunc(func(ctx context.Context, topic string) (renderer.EventStream, error) {
		return &sliceStream{}, nil
	})
	r := renderer.New(opener, renderer.WithInterval(0))
	defer r.Close()

	m := NewModel(context.Background(), r, "  robots  ")
	if m.pending != "robots" {
		t.Errorf("pending = %q", m.pending)
	}
	if m.canSubmit() {
		t.Error("submit should be disabled until the initial debate ends")
	}
	if m.Init() == nil {
		t.Error("Init should return commands")
	}
}

func TestViewBeforeResize(t *testing.T) {
	opener := renderer.OpenerFunc(func(ctx context.Context, topic string) (renderer.EventStream, error) {
		return &sliceStream{}, nil
	})
	r := renderer.New(opener)
	m := NewModel(context.Background(), r, "")
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q", got)
	}
}
