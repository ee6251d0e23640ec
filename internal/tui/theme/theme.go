// Package theme provides the Lip Gloss palette and shared styles for the
// netinfo TUI. It has no internal imports besides netinfo.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

// Connection type colors.
var (
	ColorWifi      = lipgloss.Color("#3b82f6")
	ColorCellular  = lipgloss.Color("#a855f7")
	ColorEthernet  = lipgloss.Color("#22c55e")
	ColorBluetooth = lipgloss.Color("#06b6d4")
	ColorVPN       = lipgloss.Color("#f59e0b")
	ColorOther     = lipgloss.Color("#9ca3af")
	ColorNone      = lipgloss.Color("#4b5563")
	ColorUnknown   = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorPulse   = lipgloss.Color("#fde047")
)

// TypeColor returns the color for a connection type.
func TypeColor(t netinfo.ConnectionType) lipgloss.Color {
	switch t {
	case netinfo.TypeWifi:
		return ColorWifi
	case netinfo.TypeCellular:
		return ColorCellular
	case netinfo.TypeEthernet:
		return ColorEthernet
	case netinfo.TypeBluetooth:
		return ColorBluetooth
	case netinfo.TypeVPN:
		return ColorVPN
	case netinfo.TypeNone:
		return ColorNone
	case netinfo.TypeUnknown:
		return ColorUnknown
	default:
		return ColorOther
	}
}

// TypeGlyph returns a short glyph for a connection type.
func TypeGlyph(t netinfo.ConnectionType) string {
	switch t {
	case netinfo.TypeWifi:
		return "≋"
	case netinfo.TypeCellular:
		return "▲"
	case netinfo.TypeEthernet:
		return "⇌"
	case netinfo.TypeBluetooth:
		return "ᛒ"
	case netinfo.TypeVPN:
		return "⚿"
	case netinfo.TypeNone:
		return "○"
	case netinfo.TypeUnknown:
		return "?"
	default:
		return "·"
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)
)
