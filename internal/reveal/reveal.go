// Package reveal animates text one character at a time.
package reveal

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the delay between two revealed characters.
const DefaultInterval = 20 * time.Millisecond

// Typewriter steps through a string rune by rune.
type Typewriter struct {
	runes []rune
	shown int
}

// NewTypewriter returns a typewriter for text with nothing revealed yet.
func NewTypewriter(text string) *Typewriter {
	return &Typewriter{runes: []rune(text)}
}

// Step reveals one more character. It returns false once the text is complete.
func (t *Typewriter) Step() bool {
	if t.shown >= len(t.runes) {
		return false
	}
	t.shown++
	return true
}

// Text returns the revealed prefix.
func (t *Typewriter) Text() string {
	return string(t.runes[:t.shown])
}

// Done reports whether the whole text is visible.
func (t *Typewriter) Done() bool {
	return t.shown >= len(t.runes)
}

// Len is the number of characters in the full text.
func (t *Typewriter) Len() int {
	return len(t.runes)
}

// StepFunc receives the revealed prefix after each step.
type StepFunc func(text string, done bool)

// Group runs reveal tasks on their own goroutines. Tasks are independent of
// each other; CancelAll stops every task started so far.
type Group struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	ctx, cancel := context.WithCancel(context.Background())
	return &Group{ctx: ctx, cancel: cancel}
}

// Start reveals text at the given interval, calling onStep for every
// character. A non-positive interval reveals the text in a single step.
func (g *Group) Start(text string, interval time.Duration, onStep StepFunc) {
	g.mu.Lock()
	ctx := g.ctx
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		Run(ctx, text, interval, onStep)
	}()
}

// CancelAll stops all running tasks. The group stays usable for new tasks.
func (g *Group) CancelAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancel()
	g.ctx, g.cancel = context.WithCancel(context.Background())
}

// Wait blocks until every started task has finished or been cancelled.
func (g *Group) Wait() {
	g.wg.Wait()
}

// Run reveals text synchronously. It returns ctx.Err() if cancelled before
// the text is complete.
func Run(ctx context.Context, text string, interval time.Duration, onStep StepFunc) error {
	tw := NewTypewriter(text)
	if interval <= 0 || tw.Len() == 0 {
		for tw.Step() {
		}
		if onStep != nil {
			onStep(tw.Text(), true)
		}
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tw.Step()
			if onStep != nil {
				onStep(tw.Text(), tw.Done())
			}
			if tw.Done() {
				return nil
			}
		}
	}
}
