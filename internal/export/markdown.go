package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/alienxp03/debatecast/internal/core"
)

const timeLayout = "January 2, 2006 at 3:04 PM"

// MarkdownExporter exports debates to Markdown format.
type MarkdownExporter struct{}

// Export writes the debate as Markdown.
func (e *MarkdownExporter) Export(rec *core.Record, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", rec.Topic))

	sb.WriteString("## Debate Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", rec.ID))
	if rec.Server != "" {
		sb.WriteString(fmt.Sprintf("- **Server:** %s\n", rec.Server))
	}
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", rec.Status))
	sb.WriteString(fmt.Sprintf("- **Started:** %s\n", rec.StartedAt.Format(timeLayout)))
	if rec.FinishedAt != nil {
		sb.WriteString(fmt.Sprintf("- **Finished:** %s\n", rec.FinishedAt.Format(timeLayout)))
		sb.WriteString(fmt.Sprintf("- **Duration:** %s\n", formatDuration(rec.StartedAt, *rec.FinishedAt)))
	}
	sb.WriteString("\n")

	sb.WriteString("## Participants\n\n")
	if len(rec.Agents) == 0 {
		sb.WriteString("*No participants joined.*\n\n")
	}
	for _, a := range rec.Agents {
		sb.WriteString(fmt.Sprintf("- **%s**", a.Name))
		if a.Stance != "" {
			sb.WriteString(": " + a.Stance)
		}
		sb.WriteString("\n")
	}
	if len(rec.Agents) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("## Debate\n\n")
	if len(rec.Messages()) == 0 {
		sb.WriteString("*No arguments recorded.*\n\n")
	}
	n := 0
	for _, entry := range rec.Entries {
		switch entry.Kind {
		case core.EntryMessage:
			n++
			name := entry.Agent
			if a, ok := rec.Agent(entry.Agent); ok {
				name = formatAgentName(a)
			}
			sb.WriteString(fmt.Sprintf("### %d. %s\n\n", n, name))
			sb.WriteString(entry.Content)
			sb.WriteString("\n\n---\n\n")
		case core.EntryError:
			sb.WriteString(fmt.Sprintf("> **Error:** %s\n\n", entry.Content))
		}
	}

	sb.WriteString("*Exported from debatecast*\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
