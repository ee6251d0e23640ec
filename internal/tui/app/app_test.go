package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
	"github.com/netinfo-bridge/netinfo/internal/tui/client"
)

type fakeAPI struct {
	registerState string
	err           error
	notified      []string
}

func (f *fakeAPI) Register() (string, error)   { return f.registerState, f.err }
func (f *fakeAPI) Unregister() (string, error) { return "unregistered", f.err }
func (f *fakeAPI) Notify(kind string) error {
	f.notified = append(f.notified, kind)
	return f.err
}

func newTestModel(api *fakeAPI) Model {
	ws := client.NewWSClient("ws://127.0.0.1:1/ws", "", nil)
	m := New(ws, api, 10)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func publish(seq uint64, d netinfo.Descriptor) client.WSConnectivityMsg {
	return client.WSConnectivityMsg{
		Seq:     seq,
		Payload: client.Connectivity{Descriptor: d, IsConnected: d.IsConnected(), At: time.Now()},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_Initializing(t *testing.T) {
	m := New(client.NewWSClient("ws://x/ws", "", nil), &fakeAPI{}, 0)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() = %q", got)
	}
}

func TestSnapshotThenPublishes(t *testing.T) {
	m := newTestModel(&fakeAPI{})

	m, _ = update(t, m, client.WSConnectedMsg{})
	m, _ = update(t, m, client.WSSnapshotMsg{Seq: 1, Payload: client.SnapshotPayload{State: "registered"}})
	if m.current != nil {
		t.Fatal("snapshot without connectivity should leave current unset")
	}
	if m.statusBar.ObserverState != "registered" {
		t.Errorf("observer state = %q", m.statusBar.ObserverState)
	}

	m, cmd := update(t, m, publish(2, netinfo.Descriptor{Type: netinfo.TypeWifi}))
	if cmd == nil {
		t.Fatal("publish should return read and pulse commands")
	}
	m, _ = update(t, m, publish(3, netinfo.Descriptor{Type: netinfo.TypeWifi}))
	m, _ = update(t, m, publish(4, netinfo.Descriptor{Type: netinfo.TypeCellular, CellularGeneration: netinfo.Generation5G}))

	if m.current == nil || m.current.CellularGeneration != netinfo.Generation5G {
		t.Fatalf("current = %+v", m.current)
	}
	if m.statusBar.Publishes != 3 || m.statusBar.Seq != 4 {
		t.Errorf("status publishes=%d seq=%d", m.statusBar.Publishes, m.statusBar.Seq)
	}
	if len(m.changes.Entries) != 3 || !m.changes.Entries[1].Repeat {
		t.Errorf("change log = %+v", m.changes.Entries)
	}
	if !m.pulse.active {
		t.Error("pulse should be active after a publish")
	}

	out := ansi.Strip(m.View())
	for _, want := range []string{"CELLULAR", "5g", "connected", "Connected"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestPermissionMarksNextPublishOnly(t *testing.T) {
	m := newTestModel(&fakeAPI{})

	m, _ = update(t, m, client.WSPermissionMsg{Payload: client.PermissionPayload{Count: 1}})
	m, _ = update(t, m, publish(1, netinfo.Descriptor{Type: netinfo.TypeUnknown}))
	if !m.statusBar.PermissionDenied || m.statusBar.PermissionCount != 1 {
		t.Fatalf("status = %+v, want permission denied", m.statusBar)
	}

	m, _ = update(t, m, publish(2, netinfo.Descriptor{Type: netinfo.TypeUnknown}))
	if m.statusBar.PermissionDenied {
		t.Error("unsignalled publish should clear the permission marker")
	}
}

func TestPulseSettles(t *testing.T) {
	p := newPulse()
	if p.kick() == nil {
		t.Fatal("first kick should schedule a tick")
	}
	if p.kick() != nil {
		t.Error("kick while active should not schedule another tick")
	}
	if p.intensity() != 1 {
		t.Errorf("intensity = %v, want 1", p.intensity())
	}

	for i := 0; i < 10*pulseFPS && p.step(); i++ {
	}
	if p.active || p.intensity() != 0 {
		t.Errorf("pulse did not settle: pos=%v vel=%v", p.pos, p.vel)
	}
}

func TestObserverKeys(t *testing.T) {
	api := &fakeAPI{registerState: "registered"}
	m := newTestModel(api)

	_, cmd := update(t, m, keyMsg("r"))
	if cmd == nil {
		t.Fatal("register key should return a command")
	}
	m, _ = update(t, m, cmd())
	if m.statusBar.ObserverState != "registered" {
		t.Errorf("observer state = %q", m.statusBar.ObserverState)
	}

	_, cmd = update(t, m, keyMsg("u"))
	m, _ = update(t, m, cmd())
	if m.statusBar.ObserverState != "unregistered" {
		t.Errorf("observer state = %q", m.statusBar.ObserverState)
	}

	_, cmd = update(t, m, keyMsg("n"))
	m, _ = update(t, m, cmd())
	if len(api.notified) != 1 || api.notified[0] != netinfo.KindConnectivityChange {
		t.Errorf("notified = %v", api.notified)
	}

	api.err = errors.New("daemon down")
	_, cmd = update(t, m, keyMsg("r"))
	m, _ = update(t, m, cmd())
	if m.lastErr != "daemon down" {
		t.Errorf("lastErr = %q", m.lastErr)
	}
	if m.statusBar.ObserverState != "unregistered" {
		t.Error("failed register should not change state")
	}
}

func TestHelpOverlay(t *testing.T) {
	m := newTestModel(&fakeAPI{})

	m, _ = update(t, m, keyMsg("?"))
	if !m.showHelp {
		t.Fatal("expected help overlay")
	}
	if out := ansi.Strip(m.View()); !strings.Contains(out, "unregister") {
		t.Errorf("help view missing bindings:\n%s", out)
	}

	// Other keys are swallowed while the overlay is open.
	_, cmd := update(t, m, keyMsg("r"))
	if cmd != nil {
		t.Error("register should be ignored under the help overlay")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(&fakeAPI{})
	m, cmd := update(t, m, keyMsg("q"))
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.ctx.Err() == nil {
		t.Error("quit should cancel the context")
	}
}
