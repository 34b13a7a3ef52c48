// Package display renders sessions, shortlists and history for the terminal.
package display

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#5FAFAF")
	secondaryColor = lipgloss.Color("#666666")
	successColor   = lipgloss.Color("#87AF87")
	warnColor      = lipgloss.Color("#D7AF5F")
	errorColor     = lipgloss.Color("#AF5F5F")

	// TitleStyle for headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// SubtleStyle for hints and secondary text
	SubtleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	// SelectedStyle for the top ranked flight
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// BoxStyle for panel borders
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)

	// SuccessStyle for confirmations
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// WarnStyle for degradations
	WarnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	// ErrorStyle for failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)
