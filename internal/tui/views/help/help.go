// Package help renders the key binding overlay as Markdown through glamour.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/netinfo-bridge/netinfo/internal/tui/theme"
)

const intro = `# netinfo

Live view of the host's connectivity as published by **netinfod**.

Every publish is listed, including repeats: the daemon does not
deduplicate. A *permission unavailable* marker means the last query
could not read network state and the descriptor fell back to ` + "`unknown`" + `.
`

// Markdown builds the help document for the given bindings.
func Markdown(bindings []key.Binding) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n## Keys\n\n| Key | Action |\n| --- | --- |\n")
	for _, kb := range bindings {
		h := kb.Help()
		if h.Key == "" {
			continue
		}
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	return b.String()
}

// Model caches the rendered overlay per width.
type Model struct {
	bindings []key.Binding
	width    int
	rendered string
}

func New(bindings []key.Binding) Model {
	return Model{bindings: bindings}
}

// View renders the overlay at the given width.
func (m *Model) View(width int) string {
	if width < 40 {
		width = 40
	}
	if m.rendered == "" || m.width != width {
		m.width = width
		m.rendered = render(Markdown(m.bindings), width-4)
	}
	return theme.StyleBorder.Padding(0, 1).Render(m.rendered)
}

func render(md string, wrap int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return lipgloss.NewStyle().MaxWidth(wrap + 2).Render(strings.TrimSpace(out))
}
