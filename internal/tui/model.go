// Package tui is the interactive debate viewer.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alienxp03/debatecast/internal/renderer"
	"github.com/alienxp03/debatecast/internal/session"
)

const (
	sidebarWidth = 30
	minWidth     = 50
	minHeight    = 12
)

// Model is the bubbletea model for the viewer.
type Model struct {
	renderer *renderer.Renderer
	ctx      context.Context

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model

	width  int
	height int
	ready  bool

	snap     session.Snapshot
	inFlight int
	lastErr  error
	pending  string
}

// NewModel creates the viewer for r. A non-empty topic is submitted as soon
// as the program starts.
func NewModel(ctx context.Context, r *renderer.Renderer, topic string) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter a debate topic..."
	ti.CharLimit = 500
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		renderer: r,
		ctx:      ctx,
		input:    ti,
		spinner:  sp,
		help:     help.New(),
		snap:     r.Session().Snapshot(),
		pending:  strings.TrimSpace(topic),
	}
	if m.pending != "" {
		m.inFlight = 1
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.pending != "" {
		cmds = append(cmds, submitCmd(m.ctx, m.renderer, m.pending))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.renderer.Close()
			return m, tea.Quit
		case key.Matches(msg, keys.Submit):
			topic := strings.TrimSpace(m.input.Value())
			if topic == "" || !m.canSubmit() {
				return m, nil
			}
			m.input.Reset()
			m.lastErr = nil
			m.inFlight++
			return m, submitCmd(m.ctx, m.renderer, topic)
		case key.Matches(msg, keys.ScrollUp), key.Matches(msg, keys.ScrollDn):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case refreshMsg:
		m.refresh()
		return m, nil

	case submitDoneMsg:
		if m.inFlight > 0 {
			m.inFlight--
		}
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) && !errors.Is(msg.err, renderer.ErrEmptyTopic) {
			m.lastErr = msg.err
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitCmd runs one debate in the background. The renderer reports
// progress through refreshMsg; the returned message arrives when the stream
// ends.
func submitCmd(ctx context.Context, r *renderer.Renderer, topic string) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: r.Submit(ctx, topic)}
	}
}

func (m Model) canSubmit() bool {
	return m.inFlight == 0 && m.snap.CanSubmit
}

// refresh re-reads the session and shows the newest entry.
func (m *Model) refresh() {
	m.snap = m.renderer.Session().Snapshot()
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript(m.viewport.Width))
	m.viewport.GotoTop()
}

func (m *Model) layout() {
	w, h := max(m.width, minWidth), max(m.height, minHeight)

	// header, input box and status bar
	chrome := 1 + 3 + 1
	bodyHeight := h - chrome - 2
	vpWidth := w - sidebarWidth - 4

	if !m.ready {
		m.viewport = viewport.New(vpWidth, bodyHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = bodyHeight
	}
	m.input.Width = w - 8
	m.help.Width = w
	m.refresh()
}
