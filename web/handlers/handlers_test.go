package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alienxp03/debatecast/internal/client"
	"github.com/alienxp03/debatecast/internal/core"
	"github.com/alienxp03/debatecast/internal/renderer"
	"github.com/alienxp03/debatecast/internal/session"
	"github.com/alienxp03/debatecast/internal/storage"
)

// setupTestHandler creates a handler over a temporary SQLite database.
func setupTestHandler(t *testing.T, opts ...Option) (*Handler, storage.Storage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Initialize(); err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}

	opts = append([]Option{WithDelay(0)}, opts...)
	return New(store, opts...), store
}

func testRecord() *core.Record {
	started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(time.Minute)
	return &core.Record{
		ID:     "6b1d7f00-aaaa-bbbb-cccc-000000000001",
		Topic:  "Should cities ban cars?",
		Status: core.StatusCompleted,
		Agents: []core.Agent{
			{ID: "agent-1", Name: "Agent A", Stance: "For", Color: core.PaletteColor(0), Index: 1},
			{ID: "agent-2", Name: "Agent B", Stance: "Against", Color: core.PaletteColor(1), Index: 2},
		},
		Entries: []core.Entry{
			{Kind: core.EntryStatus, Agent: core.SystemSender, Content: "Initializing debate..."},
			{Kind: core.EntryMessage, Agent: "Agent A", Content: "Streets belong to people."},
			{Kind: core.EntryError, Agent: core.SystemSender, Content: "model timeout"},
			{Kind: core.EntryMessage, Agent: "Agent B", Content: "Deliveries need roads."},
			{Kind: core.EntryStatus, Agent: core.SystemSender, Content: "Debate concluded."},
		},
		StartedAt:  started,
		FinishedAt: &finished,
	}
}

func TestReplayEvents(t *testing.T) {
	events := ReplayEvents(testRecord())

	want := []core.Event{
		{Type: core.EventAgentStance, Name: "Agent A", Stance: "For"},
		{Type: core.EventAgentStance, Name: "Agent B", Stance: "Against"},
		{Type: core.EventStatus, Content: "Agent A is thinking..."},
		{Type: core.EventArgument, Name: "Agent A", Content: "Streets belong to people."},
		{Type: core.EventError, Content: "model timeout"},
		{Type: core.EventStatus, Content: "Agent B is thinking..."},
		{Type: core.EventArgument, Name: "Agent B", Content: "Deliveries need roads."},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestReplayEventsDropsLocalConnectError(t *testing.T) {
	rec := testRecord()
	rec.Entries = append(rec.Entries, core.Entry{Kind: core.EntryError, Agent: core.SystemSender, Content: session.MsgConnectError})

	for _, ev := range ReplayEvents(rec) {
		if ev.Content == session.MsgConnectError {
			t.Fatalf("connect error should not be replayed: %+v", ev)
		}
	}
	if n := len(ReplayEvents(rec)); n != 7 {
		t.Errorf("got %d events, want 7", n)
	}
}

// recordOffline submits topic against a closed server so the renderer saves a
// failed session into store.
func recordOffline(t *testing.T, store storage.Storage, topic string) {
	t.Helper()

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL + "/debate"
	closed.Close()

	r := renderer.New(renderer.FromClient(client.New(url)), renderer.WithInterval(0), renderer.WithRecorder(store))
	if err := r.Submit(context.Background(), topic); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	r.Wait()
}

func TestReplaySkipsFailedRecording(t *testing.T) {
	tests := []struct {
		name         string
		saveComplete bool
		wantStatus   core.SessionStatus
		wantMessages int
		wantError    string
	}{
		{"completed recording wins", true, core.StatusCompleted, 2, ""},
		{"only failed recording", false, core.StatusCompleted, 0, "No recorded debate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := setupTestHandler(t)
			rec := testRecord()
			rec.StartedAt = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
			if tt.saveComplete {
				if err := store.SaveSession(rec); err != nil {
					t.Fatalf("SaveSession failed: %v", err)
				}
			}
			recordOffline(t, store, rec.Topic)

			sessions, err := store.ListSessions(10, 0)
			if err != nil {
				t.Fatalf("ListSessions failed: %v", err)
			}
			if len(sessions) == 0 || sessions[0].Status != core.StatusFailed {
				t.Fatalf("newest session should be the failed offline run: %+v", sessions)
			}

			mux := chi.NewRouter()
			h.RegisterRoutes(mux)
			server := httptest.NewServer(mux)
			defer server.Close()

			r := renderer.New(renderer.FromClient(client.New(server.URL+"/debate")), renderer.WithInterval(0))
			if err := r.Submit(context.Background(), rec.Topic); err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			r.Wait()

			got := r.Session().Record(server.URL)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if n := len(got.Messages()); n != tt.wantMessages {
				t.Errorf("got %d messages, want %d", n, tt.wantMessages)
			}

			var errs []string
			for _, e := range got.Entries {
				if e.Kind == core.EntryError {
					errs = append(errs, e.Content)
				}
			}
			for _, e := range errs {
				if e == session.MsgConnectError {
					t.Errorf("replay should not carry the offline connect error: %q", errs)
				}
			}
			if tt.wantError != "" && (len(errs) != 1 || !strings.Contains(errs[0], tt.wantError)) {
				t.Errorf("errors = %q, want one containing %q", errs, tt.wantError)
			}
		})
	}
}

func TestReplayThroughRenderer(t *testing.T) {
	h, store := setupTestHandler(t)
	rec := testRecord()
	if err := store.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	mux := chi.NewRouter()
	h.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	r := renderer.New(renderer.FromClient(client.New(server.URL+"/debate")), renderer.WithInterval(0))
	if err := r.Submit(context.Background(), "  should CITIES ban cars? "); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	r.Wait()

	got := r.Session().Record(server.URL)
	if got.Status != core.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if len(got.Agents) != 2 || got.Agents[1].Stance != "Against" {
		t.Errorf("agents = %+v", got.Agents)
	}

	gotMsgs, wantMsgs := got.Messages(), rec.Messages()
	if len(gotMsgs) != len(wantMsgs) {
		t.Fatalf("got %d messages, want %d", len(gotMsgs), len(wantMsgs))
	}
	for i := range wantMsgs {
		if gotMsgs[i].Agent != wantMsgs[i].Agent || gotMsgs[i].Content != wantMsgs[i].Content {
			t.Errorf("message %d = %s/%q, want %s/%q", i, gotMsgs[i].Agent, gotMsgs[i].Content, wantMsgs[i].Agent, wantMsgs[i].Content)
		}
	}
}

func TestReplayUnknownTopicSendsError(t *testing.T) {
	h, _ := setupTestHandler(t)

	req := httptest.NewRequest("POST", "/debate", strings.NewReader(`{"topic": "nothing recorded"}`))
	w := httptest.NewRecorder()
	h.handleReplay(w, req)

	body := w.Body.String()
	if !strings.HasPrefix(body, "data: ") || !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("expected one SSE record, got %q", body)
	}
	if !strings.Contains(body, `"type":"error"`) || !strings.Contains(body, "nothing recorded") {
		t.Errorf("unexpected error record: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestReplayPinnedSession(t *testing.T) {
	h, store := setupTestHandler(t, WithSession("6b1d7f00"))
	if err := store.SaveSession(testRecord()); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	req := httptest.NewRequest("POST", "/debate", strings.NewReader(`{"topic": "any topic at all"}`))
	w := httptest.NewRecorder()
	h.handleReplay(w, req)

	if n := strings.Count(w.Body.String(), "data: "); n != 7 {
		t.Errorf("got %d records, want 7:\n%s", n, w.Body.String())
	}
}

func TestReplayBadBody(t *testing.T) {
	h, _ := setupTestHandler(t)

	req := httptest.NewRequest("POST", "/debate", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	h.handleReplay(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSessionAPI(t *testing.T) {
	h, store := setupTestHandler(t)
	if err := store.SaveSession(testRecord()); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	mux := chi.NewRouter()
	h.RegisterRoutes(mux)

	tests := []struct {
		name        string
		method      string
		path        string
		wantCode    int
		wantType    string
		wantContain string
	}{
		{"list", "GET", "/api/sessions", 200, "application/json", "Should cities ban cars?"},
		{"get by prefix", "GET", "/api/sessions/6b1d", 200, "application/json", "Streets belong to people."},
		{"unknown", "GET", "/api/sessions/ffff", 404, "application/json", "not found"},
		{"export markdown", "GET", "/api/sessions/6b1d/export/markdown", 200, "text/markdown", "### 1. Agent A (For)"},
		{"export json", "GET", "/api/sessions/6b1d/export/json", 200, "application/json", `"messages"`},
		{"export bad format", "GET", "/api/sessions/6b1d/export/docx", 400, "", "unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantType != "" && !strings.HasPrefix(w.Header().Get("Content-Type"), tt.wantType) {
				t.Errorf("Content-Type = %q, want %q", w.Header().Get("Content-Type"), tt.wantType)
			}
			if !strings.Contains(w.Body.String(), tt.wantContain) {
				t.Errorf("body missing %q: %s", tt.wantContain, w.Body.String())
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	h, store := setupTestHandler(t)
	if err := store.SaveSession(testRecord()); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	mux := chi.NewRouter()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("DELETE", "/api/sessions/6b1d", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/sessions", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var sessions []core.RecordSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions after delete = %d, want 0", len(sessions))
	}
}
