// Package handlers serves recorded debates over HTTP.
//
// POST /debate replays a stored session as the same event stream a live
// debate server produces, so the viewer can be demoed or tested offline.
// The JSON API lists, fetches and exports stored sessions.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alienxp03/debatecast/internal/core"
	"github.com/alienxp03/debatecast/internal/export"
	"github.com/alienxp03/debatecast/internal/storage"
)

// DefaultDelay is the pause between replayed events.
const DefaultDelay = 500 * time.Millisecond

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	storage storage.Storage
	pinned  string // replay this session for every topic
	delay   time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithSession replays the given session regardless of the submitted topic.
func WithSession(id string) Option {
	return func(h *Handler) { h.pinned = id }
}

// WithDelay sets the pause between replayed events.
func WithDelay(d time.Duration) Option {
	return func(h *Handler) { h.delay = d }
}

// New creates a new Handler.
func New(store storage.Storage, opts ...Option) *Handler {
	h := &Handler{
		storage: store,
		delay:   DefaultDelay,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/debate", h.handleReplay)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.handleAPISessions)
		r.Get("/{id}", h.handleAPISession)
		r.Get("/{id}/export/{format}", h.handleExportSession)
		r.Delete("/{id}", h.handleAPIDeleteSession)
	})
}

func (h *Handler) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 {
		limit = 20
	}

	sessions, err := h.storage.ListSessions(limit, offset)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []*core.RecordSummary{}
	}

	h.json(w, sessions)
}

// lookup resolves the {id} path value, which may be a unique prefix.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*core.Record, bool) {
	id, err := h.storage.FindByPrefix(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	rec, err := h.storage.GetSession(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if rec == nil {
		h.jsonError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return rec, true
}

func (h *Handler) handleAPISession(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.json(w, rec)
}

func (h *Handler) handleAPIDeleteSession(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.storage.DeleteSession(rec.ID); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("Session deleted", "id", rec.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportSession(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")

	exporter, err := export.GetExporter(export.Format(format))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	filename := export.GenerateFilename(rec, exporter.FileExtension())

	switch exporter.FileExtension() {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/markdown")
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	if err := exporter.Export(rec, w); err != nil {
		slog.Error("Export failed", "session_id", rec.ID, "format", format, "error", err)
		http.Error(w, "Export failed", http.StatusInternalServerError)
	}
}

// findForTopic returns the newest completed session whose topic matches,
// ignoring case and surrounding space. It returns nil when nothing matches.
// A pinned session is replayed whatever its status.
func (h *Handler) findForTopic(topic string) (*core.Record, error) {
	if h.pinned != "" {
		id, err := h.storage.FindByPrefix(h.pinned)
		if err != nil {
			return nil, err
		}
		return h.storage.GetSession(id)
	}

	sessions, err := h.storage.ListSessions(500, 0)
	if err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	for _, s := range sessions {
		if s.Status != core.StatusCompleted {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(s.Topic), topic) {
			return h.storage.GetSession(s.ID)
		}
	}
	return nil, nil
}

func (h *Handler) json(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
