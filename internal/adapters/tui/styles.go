package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorIris  = lipgloss.Color("#5D3FD3")
	colorSlate = lipgloss.Color("#667085")
	colorWhite = lipgloss.Color("#FFFFFF")

	// Pane Styles.
	listStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(colorSlate).
			MarginRight(1).
			PaddingRight(1)

	logStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	// Package Status Styles.
	pkgPendingStyle = lipgloss.NewStyle().
			Foreground(colorSlate)

	pkgBuildingStyle = lipgloss.NewStyle().
				Foreground(colorIris).
				Bold(true)

	pkgDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green

	pkgErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	pkgCachedStyle = lipgloss.NewStyle().
			Foreground(colorSlate).
			Faint(true)

	// Header Styles.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(colorIris).
			Foreground(colorWhite)
)
