package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alienxp03/debatecast/internal/core"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := titleStyle.Render("debatecast")
	if m.snap.Topic != "" {
		header += stanceStyle.Render("  " + m.snap.Topic)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Width(sidebarWidth-2).Height(m.viewport.Height).Render(m.renderRoster()),
		transcriptStyle.Render(m.viewport.View()),
	)

	box := inputStyle
	if !m.canSubmit() {
		box = inputDisabledStyle
	}
	input := box.Width(max(m.width, minWidth) - 4).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, m.renderStatusBar())
}

func (m Model) renderRoster() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Agents"))
	b.WriteString("\n\n")
	if len(m.snap.Agents) == 0 {
		b.WriteString(stanceStyle.Render("No agents yet"))
		return b.String()
	}

	inner := sidebarWidth - 4
	for _, a := range m.snap.Agents {
		line := avatarStyle(a.Color).Render(a.Initial()) + " " + nameStyle(a.Color).Render(a.Name)
		if a.Thinking {
			line += " " + m.spinner.View()
		}
		b.WriteString(line)
		b.WriteString("\n")
		if a.Stance != "" {
			b.WriteString(stanceStyle.Width(inner).Render(a.Stance))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderTranscript lays out entries newest first.
func (m Model) renderTranscript(width int) string {
	if len(m.snap.Entries) == 0 {
		return systemStyle.Render("Type a topic below and press enter.")
	}

	colors := make(map[string]core.Color, len(m.snap.Agents))
	for _, a := range m.snap.Agents {
		colors[a.Name] = a.Color
	}

	blocks := make([]string, 0, len(m.snap.Entries))
	for _, e := range m.snap.Entries {
		switch e.Kind {
		case core.EntryError:
			blocks = append(blocks, errorStyle.Width(width).Render(fmt.Sprintf("%s: %s", core.SystemSender, e.Content)))
		case core.EntryStatus:
			blocks = append(blocks, systemStyle.Width(width).Render(fmt.Sprintf("%s: %s", core.SystemSender, e.Content)))
		default:
			c, ok := colors[e.Agent]
			if !ok {
				c = core.PaletteColor(0)
			}
			text := e.Revealed
			if text == "" {
				text = " "
			}
			blocks = append(blocks, nameStyle(c).Render(e.Agent)+"\n"+bubbleStyle(c, width).Render(text))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderStatusBar() string {
	var status string
	switch {
	case m.lastErr != nil:
		status = errorStyle.Render(m.lastErr.Error())
	case !m.canSubmit():
		text := m.snap.LastStatus
		if text == "" {
			text = "Waiting for the server..."
		}
		status = m.spinner.View() + " " + statusBarStyle.Render(text)
	default:
		status = statusBarStyle.Render("Ready")
	}
	return status + "  " + helpStyle.Render(m.help.View(keys))
}
