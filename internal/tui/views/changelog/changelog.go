// Package changelog keeps and renders the most recent published
// descriptors.
package changelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
	"github.com/netinfo-bridge/netinfo/internal/tui/theme"
)

const DefaultMaxEntries = 50

// Entry is one received publish.
type Entry struct {
	At         time.Time
	Seq        uint64
	Descriptor netinfo.Descriptor
	// Repeat is set when the descriptor equals the previous entry's.
	// Publishes are not deduplicated upstream.
	Repeat bool
}

type Model struct {
	Entries []Entry
	Max     int
}

func New(max int) Model {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return Model{Max: max}
}

// Add appends an entry and caps the buffer.
func (m *Model) Add(at time.Time, seq uint64, d netinfo.Descriptor) {
	repeat := len(m.Entries) > 0 && m.Entries[len(m.Entries)-1].Descriptor == d
	m.Entries = append(m.Entries, Entry{At: at, Seq: seq, Descriptor: d, Repeat: repeat})
	if len(m.Entries) > m.Max {
		m.Entries = m.Entries[len(m.Entries)-m.Max:]
	}
}

// View renders the newest entries first, at most height lines.
func (m Model) View(width, height int) string {
	if height < 1 {
		height = 1
	}
	title := theme.StyleHeader.Render("CHANGES")
	if len(m.Entries) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, theme.StyleDimmed.Render("  No publishes yet."))
	}

	lines := []string{title}
	for i := len(m.Entries) - 1; i >= 0 && len(lines) <= height; i-- {
		e := m.Entries[i]
		ts := theme.StyleDimmed.Render(e.At.Format("15:04:05.000"))
		desc := lipgloss.NewStyle().Foreground(theme.TypeColor(e.Descriptor.Type)).
			Render(theme.TypeGlyph(e.Descriptor.Type) + " " + e.Descriptor.String())
		line := fmt.Sprintf("%s #%-5d %s", ts, e.Seq, desc)
		if e.Repeat {
			line += theme.StyleDimmed.Render("  (repeat)")
		}
		lines = append(lines, line)
	}

	body := strings.Join(lines, "\n")
	if width > 0 {
		return lipgloss.NewStyle().MaxWidth(width).Render(body)
	}
	return body
}
