package main

import "github.com/charmbracelet/lipgloss"

// Layout constants
const (
	cellW        = 11 // width of each column in characters
	labelVisualW = 7  // visual width of qubit label area
	gateNameW    = 5  // width of gate name inside box
	gateBoxW     = 7  // ┤ + gateNameW + ├ = 1 + 5 + 1
)

// Lipgloss styles used across the TUI.
var (
	circuitStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Padding(1)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#bb9af7")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#9ece6a")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9e64"))

	cursorBoxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff9e64")).
			Bold(true)

	activeGateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68"))

	qubitLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff"))

	gateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#73daca"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))

	removedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Strikethrough(true)

	unconditionalStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#9ece6a"))

	reducedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e0af68"))

	topStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f7768e"))
)
