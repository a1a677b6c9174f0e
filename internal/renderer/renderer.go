// Package renderer drives a debate session from submission to conclusion.
//
// A Renderer owns the session state, issues one request per submitted topic,
// applies every streamed event and starts a typewriter reveal for each
// argument. Views observe progress through the change callback and read
// session snapshots; they never mutate the session themselves.
package renderer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alienxp03/debatecast/internal/client"
	"github.com/alienxp03/debatecast/internal/core"
	"github.com/alienxp03/debatecast/internal/reveal"
	"github.com/alienxp03/debatecast/internal/session"
	"github.com/alienxp03/debatecast/internal/stream"
)

// ErrEmptyTopic is returned when a blank topic is submitted.
var ErrEmptyTopic = errors.New("renderer: empty topic")

// EventStream yields debate events until io.EOF.
type EventStream interface {
	Next() (core.Event, error)
	Close() error
}

// Opener starts a debate on the server.
type Opener interface {
	Open(ctx context.Context, topic string) (EventStream, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, topic string) (EventStream, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, topic string) (EventStream, error) {
	return f(ctx, topic)
}

// FromClient adapts a *client.Client to an Opener.
func FromClient(c *client.Client) Opener {
	return OpenerFunc(func(ctx context.Context, topic string) (EventStream, error) {
		s, err := c.Open(ctx, topic)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Recorder persists finished sessions.
type Recorder interface {
	SaveSession(rec *core.Record) error
}

// Change describes what a view should refresh.
type Change struct {
	Event   *core.Event // set when a streamed event was applied
	Entry   *core.Entry // message whose reveal advanced
	Started bool
	Done    bool // the stream has ended
}

// Renderer is the stream renderer.
type Renderer struct {
	opener   Opener
	session  *session.Session
	reveals  *reveal.Group
	interval time.Duration
	recorder Recorder
	server   string
	logger   *slog.Logger
	onChange func(Change)

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    int // bumped per submission; stale work is dropped
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithInterval sets the typewriter interval. Zero disables the animation.
func WithInterval(d time.Duration) Option {
	return func(r *Renderer) { r.interval = d }
}

// WithRecorder persists every session once its stream ends.
func WithRecorder(rec Recorder) Option {
	return func(r *Renderer) { r.recorder = rec }
}

// WithServer records the endpoint name with saved sessions.
func WithServer(url string) Option {
	return func(r *Renderer) { r.server = url }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithOnChange registers the view refresh callback. It may be called from
// reveal goroutines and must not block.
func WithOnChange(fn func(Change)) Option {
	return func(r *Renderer) { r.onChange = fn }
}

// New creates a Renderer.
func New(opener Opener, opts ...Option) *Renderer {
	r := &Renderer{
		opener:   opener,
		session:  session.New(),
		reveals:  reveal.NewGroup(),
		interval: reveal.DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.session.SetLogger(r.logger)
	return r
}

// Session exposes the state for views.
func (r *Renderer) Session() *session.Session {
	return r.session
}

// Submit runs one debate on topic and blocks until its stream ends. A
// previous submission still in flight is cancelled along with its reveals.
// Transport failures are reported in the transcript, not returned; Submit
// returns ErrEmptyTopic, or context.Canceled when ctx ends or a newer
// submission supersedes this one.
func (r *Renderer) Submit(ctx context.Context, topic string) error {
	if strings.TrimSpace(topic) == "" {
		return ErrEmptyTopic
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	r.gen++
	gen := r.gen
	r.reveals.CancelAll()
	r.session.Begin(topic)
	id := r.session.ID()
	r.mu.Unlock()
	defer cancel()

	r.logger.Info("Submitting debate", "topic", topic, "session", id)
	r.notify(Change{Started: true})

	err := r.consume(ctx, gen, topic)

	superseded := !r.ifCurrent(gen, func() {
		if err != nil {
			r.logger.Error("Debate stream failed", "session", id, "error", err)
			r.session.Fail()
		}
		r.session.Finish()
	})
	if superseded {
		r.logger.Debug("Submission superseded", "session", id)
		return context.Canceled
	}

	r.save()
	r.notify(Change{Done: true})
	r.logger.Info("Debate finished", "session", id)
	return ctx.Err()
}

// consume reads the stream until it ends. Parse failures are logged and
// skipped; any other error ends the session.
func (r *Renderer) consume(ctx context.Context, gen int, topic string) error {
	s, err := r.opener.Open(ctx, topic)
	if err != nil {
		return err
	}
	defer s.Close()

	for {
		ev, err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if stream.IsParseError(err) {
			r.logger.Warn("Skipping malformed record", "error", err)
			continue
		}
		if err != nil {
			return err
		}

		r.logger.Debug("Event received", "type", ev.Type, "name", ev.Name)
		var entry *core.Entry
		if !r.ifCurrent(gen, func() { entry = r.session.Apply(ev) }) {
			return nil
		}
		if entry != nil {
			r.startReveal(gen, *entry)
		}
		evCopy := ev
		r.notify(Change{Event: &evCopy})
	}
}

// ifCurrent runs fn while gen is still the active submission.
func (r *Renderer) ifCurrent(gen int, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return false
	}
	fn()
	return true
}

func (r *Renderer) startReveal(gen int, entry core.Entry) {
	r.reveals.Start(entry.Content, r.interval, func(text string, done bool) {
		if !r.ifCurrent(gen, func() { r.session.Reveal(entry.ID, text) }) {
			return
		}
		e := entry
		e.Revealed = text
		r.notify(Change{Entry: &e})
	})
}

func (r *Renderer) save() {
	if r.recorder == nil {
		return
	}
	rec := r.session.Record(r.server)
	if err := r.recorder.SaveSession(rec); err != nil {
		r.logger.Error("Failed to record session", "session", rec.ID, "error", err)
	}
}

func (r *Renderer) notify(c Change) {
	if r.onChange != nil {
		r.onChange(c)
	}
}

// Wait blocks until every reveal started so far has finished.
func (r *Renderer) Wait() {
	r.reveals.Wait()
}

// Close cancels the in-flight submission and all reveals.
func (r *Renderer) Close() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.reveals.CancelAll()
}
