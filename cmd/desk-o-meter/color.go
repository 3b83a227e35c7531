package main

import "github.com/charmbracelet/lipgloss"

var (
	officeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C00"))
	wfhStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CFCF"))
	vacationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	holidayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CF00"))
	silentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

func Error(text string) string {
	return errorStyle.Render(text)
}

func Success(text string) string {
	return successStyle.Render(text)
}

func Silent(text string) string {
	return silentStyle.Render(text)
}

func Header(text string) string {
	return headerStyle.Render(text)
}
