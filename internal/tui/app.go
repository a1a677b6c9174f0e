package tui

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alienxp03/debatecast/internal/renderer"
)

// App wraps the Bubbletea program.
type App struct {
	program *tea.Program
	model   Model
}

// New creates the viewer for a renderer built with NewRenderer.
func New(ctx context.Context, r *renderer.Renderer, topic string) *App {
	return &App{model: NewModel(ctx, r, topic)}
}

// NewRenderer builds a renderer whose changes are forwarded by the returned
// Notifier once it is passed to Run.
func NewRenderer(opener renderer.Opener, opts ...renderer.Option) (*renderer.Renderer, *Notifier) {
	n := &Notifier{}
	opts = append(opts, renderer.WithOnChange(n.notify))
	return renderer.New(opener, opts...), n
}

// Notifier forwards renderer changes to a running program.
type Notifier struct {
	program *tea.Program
}

func (n *Notifier) notify(renderer.Change) {
	if p := n.program; p != nil {
		p.Send(refreshMsg{})
	}
}

// Run starts the TUI application and blocks until the user quits.
func (a *App) Run(n *Notifier) error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)
	if n != nil {
		n.program = a.program
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})
	defer func() {
		signal.Stop(sigChan)
		close(done)
	}()

	go func() {
		select {
		case <-sigChan:
			a.program.Send(tea.Quit())
		case <-done:
		}
	}()

	_, err := a.program.Run()
	a.model.renderer.Close()
	return err
}
