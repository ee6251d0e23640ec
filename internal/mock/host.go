// Package mock drives the observer from a scripted network timeline so the
// daemon and TUI can be exercised without real interface changes.
package mock

import (
	"fmt"
	"sync"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

// Step is one point of the scripted timeline.
type Step struct {
	Name string
	Info netinfo.NetworkInfo
	Err  error
	// Repeat is how many extra identical notifications to deliver for this
	// step. Subscribers must tolerate duplicates.
	Repeat int
}

func active(coarse netinfo.CoarseType, detail string) netinfo.NetworkInfo {
	return netinfo.NetworkInfo{Active: true, Connected: true, Coarse: coarse, CellularDetail: detail}
}

// DefaultScript walks through every descriptor the observer can publish.
func DefaultScript() []Step {
	return []Step{
		{Name: "home wifi", Info: active(netinfo.CoarseWifi, "")},
		{Name: "docked", Info: active(netinfo.CoarseEthernet, "")},
		{Name: "leaving the building", Info: active(netinfo.CoarseMobile, "LTE"), Repeat: 1},
		{Name: "city center", Info: active(netinfo.CoarseMobile, "NR")},
		{Name: "rural", Info: active(netinfo.CoarseMobile, "EDGE")},
		{Name: "tethered", Info: active(netinfo.CoarseMobileDUN, "HSPA")},
		{Name: "tunnel", Info: netinfo.NetworkInfo{Active: true, Coarse: netinfo.CoarseMobile, CellularDetail: "LTE"}},
		{Name: "permission revoked", Err: fmt.Errorf("%w: scripted", netinfo.ErrPermissionDenied)},
		{Name: "bluetooth pan", Info: active(netinfo.CoarseBluetooth, "")},
		{Name: "wimax hotspot", Info: active(netinfo.CoarseWimax, "")},
		{Name: "vpn up", Info: active(netinfo.CoarseVPN, ""), Repeat: 2},
		{Name: "satellite", Info: active("satellite", "")},
		{Name: "airplane mode"},
	}
}

// Host is a netinfo.Host that answers from the current script step.
type Host struct {
	mu    sync.Mutex
	steps []Step
	idx   int
}

func NewHost(steps []Step) *Host {
	if len(steps) == 0 {
		steps = DefaultScript()
	}
	return &Host{steps: steps}
}

// Query implements netinfo.Host.
func (h *Host) Query() (netinfo.NetworkInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.steps[h.idx]
	return s.Info, s.Err
}

// Current returns the active step.
func (h *Host) Current() Step {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.steps[h.idx]
}

// Advance moves to the next step, wrapping at the end of the script.
func (h *Host) Advance() Step {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.idx = (h.idx + 1) % len(h.steps)
	return h.steps[h.idx]
}
