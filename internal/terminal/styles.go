package terminal

import "github.com/charmbracelet/lipgloss"

// styles is the terminal color palette.
type styles struct {
	Prompt  lipgloss.Style
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles() styles {
	return styles{
		Prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}
