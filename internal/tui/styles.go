package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alienxp03/debatecast/internal/core"
)

var (
	colorMuted  = lipgloss.Color("#9CA3AF")
	colorError  = lipgloss.Color("#F87171")
	colorBorder = lipgloss.Color("#374151")
	colorAccent = lipgloss.Color("#A78BFA")
	colorText   = lipgloss.Color("#E5E7EB")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	transcriptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	inputDisabledStyle = inputStyle.
				BorderForeground(colorBorder)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	systemStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	stanceStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// avatarStyle draws the round badge for an agent.
func avatarStyle(c core.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(c.Background)).
		Padding(0, 1)
}

// bubbleStyle draws a message with the agent's border color.
func bubbleStyle(c core.Color, width int) lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(c.Border)).
		Foreground(colorText).
		Padding(0, 1)
	if width > 4 {
		s = s.Width(width - 2)
	}
	return s
}

func nameStyle(c core.Color) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Border))
}
