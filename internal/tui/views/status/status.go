// Package status renders the one-line connection status bar.
package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/netinfo-bridge/netinfo/internal/tui/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected        bool
	ObserverState    string
	PermissionDenied bool
	PermissionCount  int
	Publishes        int
	Seq              uint64
	Width            int
}

func New() Model {
	return Model{ObserverState: "unknown"}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	stateColor := theme.ColorDimmed
	if m.ObserverState == "registered" {
		stateColor = theme.ColorHealthy
	}
	stateStr := lipgloss.NewStyle().Foreground(stateColor).Render("observer: " + m.ObserverState)

	var permStr string
	if m.PermissionDenied {
		permStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(
			fmt.Sprintf("permission unavailable (%d)", m.PermissionCount))
	} else {
		permStr = theme.StyleDimmed.Render("permission ok")
	}

	counts := fmt.Sprintf("%d publishes  seq %d", m.Publishes, m.Seq)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + stateStr + sep + permStr + sep + counts

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
