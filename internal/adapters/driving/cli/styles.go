package cli

import "github.com/charmbracelet/lipgloss"

// Shared output styles. Lipgloss degrades to plain text when the
// terminal does not support colour.
var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	tagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)
