// Package session holds the state of one debate as seen by the viewer.
//
// A Session owns the agent roster, the transcript and the submit-control
// flag. It is reset at the start of every submitted topic and is safe for
// concurrent use: reveal tasks update message text from their own goroutines
// while views read snapshots.
package session

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alienxp03/debatecast/internal/core"
)

// Fixed transcript lines.
const (
	MsgInitializing = "Initializing debate..."
	MsgConnectError = "Error connecting to the server."
	MsgConcluded    = "Debate concluded."
)

// Session is the explicit session state of the stream renderer.
type Session struct {
	mu sync.RWMutex

	id         string
	topic      string
	agents     map[string]*core.Agent
	order      []string
	counter    int
	entries    []*core.Entry // chronological; views get most-recent-first
	nextEntry  int
	canSubmit  bool
	lastStatus string
	failed     bool
	startedAt  time.Time
	finishedAt *time.Time

	now    func() time.Time
	logger *slog.Logger
}

// New returns an idle session with the submit control enabled.
func New() *Session {
	return &Session{
		agents:    make(map[string]*core.Agent),
		canSubmit: true,
		now:       time.Now,
		logger:    slog.Default(),
	}
}

// SetLogger replaces the logger used for unusual events.
func (s *Session) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
}

// Begin starts a new debate on topic. A blank topic is ignored and Begin
// returns false without touching any state.
func (s *Session) Begin(topic string) bool {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = core.NewSessionID()
	s.topic = topic
	s.agents = make(map[string]*core.Agent)
	s.order = nil
	s.counter = 0
	s.entries = nil
	s.nextEntry = 0
	s.lastStatus = ""
	s.failed = false
	s.startedAt = s.now()
	s.finishedAt = nil
	s.canSubmit = false
	s.appendLocked(core.EntryStatus, "", MsgInitializing)
	return true
}

// Apply dispatches one event. For an argument it returns the newly created
// message entry, whose text the caller reveals; otherwise it returns nil.
func (s *Session) Apply(ev core.Event) *core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case core.EventAgentStance:
		s.addAgentLocked(ev.Name, ev.Stance)

	case core.EventStatus:
		s.clearThinkingLocked()
		s.lastStatus = ev.Content
		if name, ok := s.thinkingAgentLocked(ev.Content); ok {
			s.agents[name].Thinking = true
		}

	case core.EventArgument:
		agent, ok := s.agents[ev.Name]
		if !ok {
			s.logger.Warn("Argument from unannounced agent", "name", ev.Name)
			agent = s.addAgentLocked(ev.Name, "")
		}
		agent.Thinking = false
		entry := s.appendLocked(core.EntryMessage, ev.Name, ev.Content)
		cp := *entry
		return &cp

	case core.EventError:
		s.appendLocked(core.EntryError, "", ev.Content)

	default:
		s.logger.Debug("Ignoring unknown event type", "type", ev.Type)
	}
	return nil
}

// Fail records a transport failure.
func (s *Session) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = true
	s.appendLocked(core.EntryError, "", MsgConnectError)
}

// Finish ends the debate: the submit control is enabled again, a concluding
// line is appended and every thinking indicator is cleared.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canSubmit = true
	s.appendLocked(core.EntryStatus, "", MsgConcluded)
	s.clearThinkingLocked()
	t := s.now()
	s.finishedAt = &t
}

// Reveal sets the visible prefix of a message entry.
func (s *Session) Reveal(entryID int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == entryID {
			e.Revealed = text
			return
		}
	}
}

// ID returns the identifier of the current session.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Topic returns the current topic.
func (s *Session) Topic() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topic
}

// CanSubmit reports whether the submit control is enabled.
func (s *Session) CanSubmit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canSubmit
}

// Agent returns a copy of the named agent.
func (s *Session) Agent(name string) (core.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[name]
	if !ok {
		return core.Agent{}, false
	}
	return *a, true
}

// Agents returns the roster in arrival order.
func (s *Session) Agents() []core.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agentsLocked()
}

// Entries returns the transcript, most recent first.
func (s *Session) Entries() []core.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Entry, len(s.entries))
	for i, e := range s.entries {
		out[len(s.entries)-1-i] = *e
	}
	return out
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	ID         string
	Topic      string
	Agents     []core.Agent
	Entries    []core.Entry // most recent first
	CanSubmit  bool
	LastStatus string
}

// Snapshot copies the session state under a single lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]core.Entry, len(s.entries))
	for i, e := range s.entries {
		entries[len(s.entries)-1-i] = *e
	}
	return Snapshot{
		ID:         s.id,
		Topic:      s.topic,
		Agents:     s.agentsLocked(),
		Entries:    entries,
		CanSubmit:  s.canSubmit,
		LastStatus: s.lastStatus,
	}
}

// Record builds the persistent form of the session. Message entries are
// stored with their full content regardless of reveal progress.
func (s *Session) Record(server string) *core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := core.StatusInProgress
	switch {
	case s.failed:
		status = core.StatusFailed
	case s.finishedAt != nil:
		status = core.StatusCompleted
	}

	entries := make([]core.Entry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = *e
		entries[i].Revealed = e.Content
	}

	return &core.Record{
		ID:         s.id,
		Topic:      s.topic,
		Server:     server,
		Status:     status,
		Agents:     s.agentsLocked(),
		Entries:    entries,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}
}

func (s *Session) addAgentLocked(name, stance string) *core.Agent {
	if a, ok := s.agents[name]; ok {
		if a.Stance == "" {
			a.Stance = stance
		}
		return a
	}
	a := &core.Agent{
		ID:     core.AgentElementID(s.counter),
		Name:   name,
		Stance: stance,
		Color:  core.PaletteColor(s.counter),
		Index:  s.counter,
	}
	s.agents[name] = a
	s.order = append(s.order, name)
	s.counter++
	return a
}

func (s *Session) appendLocked(kind core.EntryKind, agent, content string) *core.Entry {
	e := &core.Entry{
		ID:        s.nextEntry,
		Kind:      kind,
		Agent:     agent,
		Content:   content,
		CreatedAt: s.now(),
	}
	if kind != core.EntryMessage {
		e.Revealed = content
	}
	s.nextEntry++
	s.entries = append(s.entries, e)
	return e
}

func (s *Session) clearThinkingLocked() {
	for _, a := range s.agents {
		a.Thinking = false
	}
}

func (s *Session) agentsLocked() []core.Agent {
	out := make([]core.Agent, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.agents[name])
	}
	return out
}
