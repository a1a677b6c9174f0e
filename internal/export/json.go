package export

import (
	"encoding/json"
	"io"

	"github.com/alienxp03/debatecast/internal/core"
)

// JSONExporter exports debates to JSON format.
type JSONExporter struct{}

// ExportData represents the full export structure.
type ExportData struct {
	Session  *core.Record `json:"session"`
	Messages []core.Entry `json:"messages"`
}

// Export writes the debate as JSON.
func (e *JSONExporter) Export(rec *core.Record, w io.Writer) error {
	data := ExportData{
		Session:  rec,
		Messages: rec.Messages(),
	}
	if data.Messages == nil {
		data.Messages = []core.Entry{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}
