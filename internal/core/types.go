// Package core contains the core domain types for debatecast.
package core

import (
	"time"
	"unicode/utf8"
)

// EventType identifies the kind of record the debate server streams.
type EventType string

const (
	EventAgentStance EventType = "agent_stance"
	EventStatus      EventType = "status"
	EventArgument    EventType = "argument"
	EventError       EventType = "error"
)

// Event is one decoded record of the debate stream.
type Event struct {
	Type    EventType `json:"type"`
	Name    string    `json:"name,omitempty"`
	Content string    `json:"content,omitempty"`
	Stance  string    `json:"stance,omitempty"` // only sent with agent_stance
}

// Color is the background/border pair assigned to an agent.
type Color struct {
	Background string `json:"background"`
	Border     string `json:"border"`
}

// Palette is cycled through in agent arrival order.
var Palette = []Color{
	{Background: "#6a1b9a", Border: "#ab47bc"}, // purple
	{Background: "#00695c", Border: "#26a69a"}, // teal
	{Background: "#c62828", Border: "#ef5350"}, // red
}

// PaletteColor returns the palette entry for the i-th agent.
func PaletteColor(i int) Color {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// Agent is a named debate participant.
type Agent struct {
	ID       string `json:"id"` // agent-<index>
	Name     string `json:"name"`
	Stance   string `json:"stance,omitempty"`
	Color    Color  `json:"color"`
	Index    int    `json:"index"`
	Thinking bool   `json:"-"`
}

// Initial returns the avatar glyph for the agent.
func (a Agent) Initial() string {
	r, _ := utf8.DecodeRuneInString(a.Name)
	if r == utf8.RuneError {
		return "?"
	}
	return string(r)
}

// EntryKind distinguishes transcript entries.
type EntryKind string

const (
	EntryStatus  EntryKind = "status"
	EntryError   EntryKind = "error"
	EntryMessage EntryKind = "message"
)

// SystemSender is the sender shown for status and error lines.
const SystemSender = "System"

// Entry is a single line or bubble of the transcript.
type Entry struct {
	ID        int       `json:"id"`
	Kind      EntryKind `json:"kind"`
	Agent     string    `json:"agent,omitempty"` // empty for system lines
	Content   string    `json:"content"`
	Revealed  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Done reports whether the entry's text is fully revealed.
func (e Entry) Done() bool {
	return e.Kind != EntryMessage || e.Revealed == e.Content
}

// IsSystem reports whether the entry has no associated agent.
func (e Entry) IsSystem() bool {
	return e.Kind != EntryMessage
}

// SessionStatus represents the outcome of a recorded session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Record is a persisted debate session.
type Record struct {
	ID         string        `json:"id"`
	Topic      string        `json:"topic"`
	Server     string        `json:"server,omitempty"`
	Status     SessionStatus `json:"status"`
	Agents     []Agent       `json:"agents"`
	Entries    []Entry       `json:"entries"` // chronological
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Messages returns the agent message entries of the record.
func (r *Record) Messages() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Kind == EntryMessage {
			out = append(out, e)
		}
	}
	return out
}

// Agent looks up a participant by name.
func (r *Record) Agent(name string) (Agent, bool) {
	for _, a := range r.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return Agent{}, false
}

// RecordSummary is a lightweight representation for listing sessions.
type RecordSummary struct {
	ID           string        `json:"id"`
	Topic        string        `json:"topic"`
	Status       SessionStatus `json:"status"`
	AgentCount   int           `json:"agent_count"`
	MessageCount int           `json:"message_count"`
	StartedAt    time.Time     `json:"started_at"`
}
