package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
	"github.com/netinfo-bridge/netinfo/internal/tui/client"
	"github.com/netinfo-bridge/netinfo/internal/tui/theme"
	"github.com/netinfo-bridge/netinfo/internal/tui/views/changelog"
	"github.com/netinfo-bridge/netinfo/internal/tui/views/help"
	"github.com/netinfo-bridge/netinfo/internal/tui/views/status"
)

// API is the subset of the daemon's HTTP API the TUI drives.
type API interface {
	Register() (string, error)
	Unregister() (string, error)
	Notify(kind string) error
}

type observerOpMsg struct {
	state string
	err   error
}

type notifyDoneMsg struct{ err error }

// Model is the root Bubble Tea model.
type Model struct {
	ws     *client.WSClient
	api    API
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	current           *client.Connectivity
	permissionPending bool
	lastErr           string
	showHelp          bool

	statusBar status.Model
	changes   changelog.Model
	help      *help.Model
	pulse     pulse
}

// New creates the root model. historySize caps the change log.
func New(ws *client.WSClient, api API, historySize int) Model {
	ctx, cancel := context.WithCancel(context.Background())
	keys := DefaultKeyMap()
	h := help.New(keys.Bindings())
	return Model{
		ws:        ws,
		api:       api,
		ctx:       ctx,
		cancel:    cancel,
		keys:      keys,
		statusBar: status.New(),
		changes:   changelog.New(historySize),
		help:      &h,
		pulse:     newPulse(),
	}
}

// Init starts the websocket connection.
func (m Model) Init() tea.Cmd {
	return m.ws.Listen(m.ctx)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.statusBar.Connected = true
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.statusBar.Connected = false
		return m, m.ws.Listen(m.ctx)

	case client.WSSnapshotMsg:
		m.statusBar.Seq = msg.Seq
		m.statusBar.ObserverState = msg.Payload.State
		m.statusBar.PermissionDenied = msg.Payload.PermissionDenied
		if msg.Payload.Connectivity != nil {
			c := *msg.Payload.Connectivity
			m.current = &c
		}
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSConnectivityMsg:
		pulseCmd := m.applyPublish(msg)
		return m, tea.Batch(pulseCmd, m.ws.ReadLoop(m.ctx))

	case client.WSPermissionMsg:
		m.statusBar.PermissionCount = msg.Payload.Count
		m.permissionPending = true
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSErrorMsg:
		m.lastErr = msg.Payload.Message
		return m, m.ws.ReadLoop(m.ctx)

	case observerOpMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.statusBar.ObserverState = msg.state
		return m, nil

	case notifyDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		return m, nil

	case pulseTickMsg:
		if m.pulse.step() {
			return m, pulseTick()
		}
		return m, nil
	}

	return m, nil
}

// applyPublish records a descriptor. A permission signal marks only the
// publish that follows it.
func (m *Model) applyPublish(msg client.WSConnectivityMsg) tea.Cmd {
	c := msg.Payload
	m.current = &c
	m.statusBar.Seq = msg.Seq
	m.statusBar.Publishes++
	m.statusBar.PermissionDenied = m.permissionPending
	m.permissionPending = false
	at := c.At
	if at.IsZero() {
		at = time.Now()
	}
	m.changes.Add(at, msg.Seq, c.Descriptor)
	return m.pulse.kick()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.showHelp = false
			return m, nil
		}
		if key.Matches(msg, m.keys.Quit) {
			m.cancel()
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Register):
		return m, m.observerOp(m.api.Register)

	case key.Matches(msg, m.keys.Unregister):
		return m, m.observerOp(m.api.Unregister)

	case key.Matches(msg, m.keys.Notify):
		api := m.api
		return m, func() tea.Msg {
			return notifyDoneMsg{err: api.Notify(netinfo.KindConnectivityChange)}
		}

	case key.Matches(msg, m.keys.Resync):
		if err := m.ws.Resync(); err != nil {
			m.lastErr = err.Error()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) observerOp(op func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		state, err := op()
		return observerOpMsg{state: state, err: err}
	}
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left, m.statusBar.View(), m.help.View(m.width))
	}

	sections := []string{
		m.statusBar.View(),
		m.renderCurrent(),
		m.changes.View(m.width, max(m.height-12, 3)),
	}
	if m.lastErr != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("  error: "+m.lastErr))
	}
	sections = append(sections, theme.StyleDimmed.Render("  r:register  u:unregister  n:notify  s:resync  ?:help  q:quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderCurrent() string {
	border := theme.ColorBorder
	switch i := m.pulse.intensity(); {
	case i > 0.5:
		border = theme.ColorPulse
	case i > 0.1:
		border = theme.ColorWarning
	}

	var body string
	if m.current == nil {
		body = theme.StyleDimmed.Render("waiting for first publish")
	} else {
		d := m.current.Descriptor
		label := lipgloss.NewStyle().Bold(true).Foreground(theme.TypeColor(d.Type)).
			Render(theme.TypeGlyph(d.Type) + "  " + strings.ToUpper(string(d.Type)))
		var detail []string
		if d.CellularGeneration != "" {
			detail = append(detail, string(d.CellularGeneration))
		}
		if m.current.IsConnected {
			detail = append(detail, "connected")
		} else {
			detail = append(detail, "not connected")
		}
		body = label + "  " + theme.StyleDimmed.Render(strings.Join(detail, " · "))
		if !m.current.At.IsZero() {
			body += "\n" + theme.StyleDimmed.Render(fmt.Sprintf("since %s", m.current.At.Local().Format("15:04:05")))
		}
	}

	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Render(body)
}
