package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.Viewport.Height == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.packageList(),
		m.logPane(),
	)
}

func (m Model) packageList() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PACKAGES") + "\n\n")

	for _, pkg := range m.Packages {
		var style lipgloss.Style
		var icon string

		switch pkg.Status {
		case StatusBuilding:
			style = pkgBuildingStyle
			icon = "●"
		case StatusDone:
			style = pkgDoneStyle
			icon = "✓"
		case StatusError:
			style = pkgErrorStyle
			icon = "✗"
		default: // Pending
			style = pkgPendingStyle
			icon = "○"
		}

		if pkg.Cached {
			style = pkgCachedStyle
			icon = "⚡"
		}

		line := fmt.Sprintf("%s %s", icon, pkg.Name)
		if pkg.Name == m.ActivePackage {
			line = "> " + line
		} else {
			line = "  " + line
		}

		s.WriteString(style.Render(line) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m Model) logPane() string {
	var header string
	if m.ActivePackage != "" {
		header = titleStyle.Render("LOGS: " + m.ActivePackage)
	} else {
		header = titleStyle.Render("LOGS (Waiting...)")
	}

	return logStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			m.Viewport.View(),
		),
	)
}
