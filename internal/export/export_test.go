package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alienxp03/debatecast/internal/core"
)

func sampleRecord() *core.Record {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	return &core.Record{
		ID:     "0f4c2a9e-1111-2222-3333-444455556666",
		Topic:  "Should cities ban cars?",
		Server: "http://127.0.0.1:8000/debate",
		Status: core.StatusCompleted,
		Agents: []core.Agent{
			{ID: "agent-1", Name: "Agent A", Stance: "For", Color: core.PaletteColor(0), Index: 1},
			{ID: "agent-2", Name: "Agent B", Stance: "Against", Color: core.PaletteColor(1), Index: 2},
		},
		Entries: []core.Entry{
			{ID: 0, Kind: core.EntryStatus, Agent: core.SystemSender, Content: "Initializing debate..."},
			{ID: 1, Kind: core.EntryMessage, Agent: "Agent A", Content: "Streets are for people \u2014 not cars."},
			{ID: 2, Kind: core.EntryError, Agent: core.SystemSender, Content: "model timeout"},
			{ID: 3, Kind: core.EntryMessage, Agent: "Agent B", Content: "Deliveries need roads."},
			{ID: 4, Kind: core.EntryStatus, Agent: core.SystemSender, Content: "Debate concluded."},
		},
		StartedAt:  started,
		FinishedAt: &finished,
	}
}

func TestGetExporter(t *testing.T) {
	tests := []struct {
		format  Format
		ext     string
		wantErr bool
	}{
		{FormatMarkdown, "md", false},
		{"md", "md", false},
		{FormatJSON, "json", false},
		{FormatPDF, "pdf", false},
		{"docx", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			exp, err := GetExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetExporter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err == nil && exp.FileExtension() != tt.ext {
				t.Errorf("FileExtension() = %q, want %q", exp.FileExtension(), tt.ext)
			}
		})
	}
}

func TestGenerateFilename(t *testing.T) {
	rec := sampleRecord()
	got := GenerateFilename(rec, "md")
	want := "debate_20260314_Should_cities_ban_cars.md"
	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}

	rec.Topic = strings.Repeat("é", 80)
	got = GenerateFilename(rec, "json")
	if n := len([]rune(got)); n != len("debate_20260314_.json")+50 {
		t.Errorf("long topic not truncated to 50 runes: %q", got)
	}
}

func TestMarkdownExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(sampleRecord(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Should cities ban cars?",
		"- **Status:** completed",
		"- **Duration:** 90 seconds",
		"- **Agent A**: For",
		"### 1. Agent A (For)",
		"### 2. Agent B (Against)",
		"> **Error:** model timeout",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Initializing debate...") {
		t.Error("status lines should not be exported")
	}
	if strings.Index(out, "Streets are") > strings.Index(out, "Deliveries") {
		t.Error("messages should be in chronological order")
	}
}

func TestMarkdownExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	rec := &core.Record{ID: "x", Topic: "Empty", Status: core.StatusFailed}
	if err := (&MarkdownExporter{}).Export(rec, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(buf.String(), "*No arguments recorded.*") {
		t.Errorf("expected empty marker:\n%s", buf.String())
	}
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(sampleRecord(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Session.Topic != "Should cities ban cars?" {
		t.Errorf("topic = %q", data.Session.Topic)
	}
	if len(data.Messages) != 2 {
		t.Errorf("messages = %d, want 2", len(data.Messages))
	}
	if len(data.Session.Entries) != 5 {
		t.Errorf("entries = %d, want 5", len(data.Session.Entries))
	}
}

func TestPDFExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&PDFExporter{}).Export(sampleRecord(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestLighten(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b int
	}{
		{"#000000", 127, 127, 127},
		{"#ffffff", 255, 255, 255},
		{"ff0000", 255, 127, 127},
		{"bogus", 230, 230, 230},
	}
	for _, tt := range tests {
		r, g, b := lighten(tt.hex)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("lighten(%q) = %d,%d,%d, want %d,%d,%d", tt.hex, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}
