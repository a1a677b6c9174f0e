package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alienxp03/debatecast/internal/client"
	"github.com/alienxp03/debatecast/internal/core"
	"github.com/alienxp03/debatecast/internal/session"
)

// ReplayEvents converts a stored session back into the events that produced
// it: every stance first, then each argument preceded by its speaker's
// thinking status, with server errors in place. Connection failures the
// viewer recorded locally are left out.
func ReplayEvents(rec *core.Record) []core.Event {
	events := make([]core.Event, 0, len(rec.Agents)+2*len(rec.Entries))
	for _, a := range rec.Agents {
		events = append(events, core.Event{Type: core.EventAgentStance, Name: a.Name, Stance: a.Stance})
	}
	for _, e := range rec.Entries {
		switch e.Kind {
		case core.EntryMessage:
			events = append(events,
				core.Event{Type: core.EventStatus, Content: e.Agent + " is thinking..."},
				core.Event{Type: core.EventArgument, Name: e.Agent, Content: e.Content},
			)
		case core.EntryError:
			if e.Content == session.MsgConnectError {
				continue
			}
			events = append(events, core.Event{Type: core.EventError, Content: e.Content})
		}
	}
	return events
}

// handleReplay streams a recorded debate using Server-Sent Events.
func (h *Handler) handleReplay(w http.ResponseWriter, r *http.Request) {
	var req client.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	slog.Debug("New replay connection", "topic", req.Topic, "remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	rec, err := h.findForTopic(req.Topic)
	if err != nil {
		slog.Error("Failed to find session for replay", "topic", req.Topic, "error", err)
		h.sendSSEError(w, flusher, "Failed to load recorded debate")
		return
	}
	if rec == nil {
		slog.Warn("No recorded debate for topic", "topic", req.Topic)
		h.sendSSEError(w, flusher, fmt.Sprintf("No recorded debate for %q", req.Topic))
		return
	}

	events := ReplayEvents(rec)
	slog.Info("Replaying session", "id", rec.ID, "events", len(events))

	var timer *time.Timer
	for i, ev := range events {
		if i > 0 && h.delay > 0 {
			if timer == nil {
				timer = time.NewTimer(h.delay)
				defer timer.Stop()
			} else {
				timer.Reset(h.delay)
			}
			select {
			case <-r.Context().Done():
				slog.Debug("Replay client went away", "id", rec.ID)
				return
			case <-timer.C:
			}
		}
		if err := h.sendSSEEvent(w, flusher, ev); err != nil {
			return
		}
	}
}

// sendSSEEvent writes one data-only record.
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, ev core.Event) error {
	jsonData, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal SSE data", "error", err)
		return err
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		slog.Error("Failed to write SSE data", "error", err)
		return err
	}
	flusher.Flush()
	return nil
}

// sendSSEError sends an error event.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, message string) {
	h.sendSSEEvent(w, flusher, core.Event{Type: core.EventError, Content: message})
}
