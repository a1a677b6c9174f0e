// Package plain renders a debate as a stream of terminal lines.
//
// Unlike the interactive viewer, the plain printer writes entries in arrival
// order so its output can be piped or captured in CI logs. All output goes
// through a single queue; an argument being typed out is never interleaved
// with later lines.
package plain

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/alienxp03/debatecast/internal/core"
	"github.com/alienxp03/debatecast/internal/renderer"
	"github.com/alienxp03/debatecast/internal/reveal"
	"github.com/alienxp03/debatecast/internal/session"
)

// item is one unit of queued output: a finished line or a message to type.
type item struct {
	line  string
	msg   *core.Entry
	agent core.Agent
}

// Printer writes session progress to an io.Writer.
type Printer struct {
	out      io.Writer
	r        *lipgloss.Renderer
	interval time.Duration

	mu      sync.Mutex
	printed map[int]bool // entry IDs already queued

	queue chan item
	done  chan struct{}
}

// New creates a Printer. Colors follow the writer's terminal profile, so
// redirected output stays free of escape codes. A zero interval prints
// arguments without the typewriter effect.
func New(out io.Writer, interval time.Duration) *Printer {
	return newPrinter(out, interval, lipgloss.NewRenderer(out))
}

// NewWithProfile is New with a fixed color profile.
func NewWithProfile(out io.Writer, interval time.Duration, profile termenv.Profile) *Printer {
	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(profile)
	return newPrinter(out, interval, r)
}

func newPrinter(out io.Writer, interval time.Duration, r *lipgloss.Renderer) *Printer {
	p := &Printer{
		out:      out,
		r:        r,
		interval: interval,
		printed:  make(map[int]bool),
		queue:    make(chan item, 256),
		done:     make(chan struct{}),
	}
	go p.drain()
	return p
}

// OnChange returns the renderer callback for s.
func (p *Printer) OnChange(s *session.Session) func(renderer.Change) {
	return func(c renderer.Change) {
		switch {
		case c.Started:
			p.mu.Lock()
			p.printed = make(map[int]bool)
			p.mu.Unlock()
			p.flushEntries(s)
		case c.Event != nil:
			p.handleEvent(s, *c.Event)
		case c.Done:
			p.flushEntries(s)
		}
	}
}

func (p *Printer) handleEvent(s *session.Session, ev core.Event) {
	switch ev.Type {
	case core.EventAgentStance:
		if a, ok := s.Agent(ev.Name); ok && p.markPrinted(-1-a.Index) {
			p.queue <- item{line: p.agentLine(a)}
		}
	case core.EventStatus:
		for _, a := range s.Agents() {
			if a.Thinking {
				p.queue <- item{line: p.r.NewStyle().Faint(true).Render(fmt.Sprintf("  %s is thinking...", a.Name))}
			}
		}
	}
	p.flushEntries(s)
}

// flushEntries queues every transcript entry not written yet, oldest first.
func (p *Printer) flushEntries(s *session.Session) {
	entries := s.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !p.markPrinted(e.ID) {
			continue
		}
		if e.IsSystem() {
			p.queue <- item{line: p.systemLine(e)}
			continue
		}
		agent, _ := s.Agent(e.Agent)
		p.queue <- item{msg: &e, agent: agent}
	}
}

// markPrinted records key and reports whether it was new. Agent headers use
// negative keys so they never collide with entry IDs.
func (p *Printer) markPrinted(key int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed[key] {
		return false
	}
	p.printed[key] = true
	return true
}

func (p *Printer) drain() {
	defer close(p.done)
	for it := range p.queue {
		if it.msg != nil {
			p.typeMessage(*it.msg, it.agent)
			continue
		}
		fmt.Fprintln(p.out, it.line)
	}
}

func (p *Printer) typeMessage(e core.Entry, a core.Agent) {
	border := a.Color.Border
	if border == "" {
		border = core.Palette[0].Border
	}
	header := p.r.NewStyle().Bold(true).Foreground(lipgloss.Color(border)).Render(e.Agent + ":")
	fmt.Fprintf(p.out, "\n%s\n", header)

	written := 0
	_ = reveal.Run(context.Background(), e.Content, p.interval, func(text string, done bool) {
		runes := []rune(text)
		fmt.Fprint(p.out, string(runes[written:]))
		written = len(runes)
	})
	fmt.Fprintln(p.out)
}

func (p *Printer) agentLine(a core.Agent) string {
	avatar := p.r.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff")).
		Background(lipgloss.Color(a.Color.Background)).
		Padding(0, 1).
		Render(a.Initial())
	name := p.r.NewStyle().Bold(true).Foreground(lipgloss.Color(a.Color.Border)).Render(a.Name)
	line := avatar + " " + name
	if a.Stance != "" {
		line += p.r.NewStyle().Faint(true).Render(" - " + a.Stance)
	}
	return line
}

func (p *Printer) systemLine(e core.Entry) string {
	style := p.r.NewStyle().Italic(true).Foreground(lipgloss.Color("#9CA3AF"))
	if e.Kind == core.EntryError {
		style = p.r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F87171"))
	}
	return style.Render(fmt.Sprintf("[%s] %s", core.SystemSender, e.Content))
}

// Close waits for queued output to be written. The printer cannot be used
// afterwards.
func (p *Printer) Close() {
	close(p.queue)
	<-p.done
}

// PrintRecord writes a stored session in the same format, without animation.
func (p *Printer) PrintRecord(rec *core.Record) {
	for _, a := range rec.Agents {
		p.queue <- item{line: p.agentLine(a)}
	}
	for _, e := range rec.Entries {
		if e.IsSystem() {
			p.queue <- item{line: p.systemLine(e)}
			continue
		}
		agent, _ := rec.Agent(e.Agent)
		e := e
		p.queue <- item{msg: &e, agent: agent}
	}
}
