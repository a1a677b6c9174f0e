package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/alienxp03/debatecast/internal/core"
)

// PDFExporter exports debates to PDF format.
type PDFExporter struct{}

// Export writes the debate as PDF.
func (e *PDFExporter) Export(rec *core.Record, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, e.sanitizeText(rec.Topic), "", "C", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate Information")
	pdf.Ln(8)

	e.addMetadataRow(pdf, "ID:", core.ShortID(rec.ID))
	e.addMetadataRow(pdf, "Status:", string(rec.Status))
	e.addMetadataRow(pdf, "Started:", rec.StartedAt.Format(timeLayout))
	if rec.FinishedAt != nil {
		e.addMetadataRow(pdf, "Finished:", rec.FinishedAt.Format(timeLayout))
		e.addMetadataRow(pdf, "Duration:", formatDuration(rec.StartedAt, *rec.FinishedAt))
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Participants")
	pdf.Ln(8)
	for _, a := range rec.Agents {
		e.addParticipant(pdf, a)
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate")
	pdf.Ln(8)

	if len(rec.Messages()) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No arguments recorded.")
		pdf.Ln(6)
	}
	n := 0
	for _, entry := range rec.Entries {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		switch entry.Kind {
		case core.EntryMessage:
			n++
			agent, _ := rec.Agent(entry.Agent)
			r, g, b := lighten(agent.Color.Border)
			pdf.SetFillColor(r, g, b)
			pdf.SetFont("Arial", "B", 10)
			header := fmt.Sprintf("%d. %s", n, e.sanitizeText(entry.Agent))
			pdf.CellFormat(0, 7, header, "", 1, "", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			pdf.SetFillColor(255, 255, 255)
			pdf.MultiCell(0, 5, e.sanitizeText(entry.Content), "", "", false)
			pdf.Ln(5)
		case core.EntryError:
			pdf.SetFillColor(255, 200, 200)
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(0, 6, "Error: "+e.sanitizeText(entry.Content), "", 1, "", true, 0, "")
			pdf.Ln(3)
		}
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Exported from debatecast", "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, e.sanitizeText(value))
	pdf.Ln(5)
}

func (e *PDFExporter) addParticipant(pdf *gofpdf.Fpdf, agent core.Agent) {
	r, g, b := lighten(agent.Color.Border)
	pdf.SetFillColor(r, g, b)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, e.sanitizeText(agent.Name), "", 1, "", true, 0, "")
	if agent.Stance != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, e.sanitizeText(agent.Stance), "", "", false)
	}
	pdf.Ln(2)
}

// lighten parses a #rrggbb color and mixes it halfway with white. Anything
// unparseable yields light gray.
func lighten(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if len(hex) != 6 || err != nil {
		return 230, 230, 230
	}
	mix := func(c uint64) int { return int(c+255) / 2 }
	return mix(v >> 16 & 0xff), mix(v >> 8 & 0xff), mix(v & 0xff)
}

// gofpdf's core fonts use cp1252.
func (e *PDFExporter) sanitizeText(text string) string {
	replacer := strings.NewReplacer(
		"\u2018", "'",
		"\u2019", "'",
		"\u201C", "\"",
		"\u201D", "\"",
		"\u2013", "-",
		"\u2014", "--",
		"\u2026", "...",
		"\u2022", "*",
		"\u00A0", " ",
	)
	return replacer.Replace(text)
}
