package host

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

// Rules classifies interface names into coarse network types by prefix.
type Rules struct {
	Prefixes map[netinfo.CoarseType][]string
	// Radios maps cellular interface names to their radio technology
	// (e.g. "wwan0": "LTE").
	Radios map[string]string
}

// DefaultRules covers common Linux interface naming schemes.
func DefaultRules() Rules {
	return Rules{
		Prefixes: map[netinfo.CoarseType][]string{
			netinfo.CoarseWifi:      {"wlan", "wlp", "wlx", "wifi"},
			netinfo.CoarseEthernet:  {"eth", "enp", "eno", "ens", "enx", "em"},
			netinfo.CoarseMobile:    {"wwan", "rmnet", "ccmni"},
			netinfo.CoarseMobileDUN: {"ppp"},
			netinfo.CoarseBluetooth: {"bnep", "bt-pan"},
			netinfo.CoarseWimax:     {"wmx", "wimax"},
			netinfo.CoarseVPN:       {"tun", "tap", "wg", "tailscale", "utun", "ipsec"},
		},
		Radios: map[string]string{},
	}
}

// Classify returns the coarse type of an interface. The longest matching
// prefix wins; names that match nothing classify as "unrecognized".
func (r Rules) Classify(name string) netinfo.CoarseType {
	best := netinfo.CoarseType("unrecognized")
	bestLen := 0
	for coarse, prefixes := range r.Prefixes {
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(name, p) && len(p) > bestLen {
				best = coarse
				bestLen = len(p)
			}
		}
	}
	return best
}

// SystemHost answers network queries from the kernel route table and the
// interface list.
type SystemHost struct {
	mu         sync.RWMutex
	rules      Rules
	routeFile  string
	interfaces func() (psnet.InterfaceStatList, error)
}

func NewSystemHost(routeFile string, rules Rules) *SystemHost {
	if routeFile == "" {
		routeFile = DefaultRouteFile
	}
	return &SystemHost{
		rules:      rules,
		routeFile:  routeFile,
		interfaces: psnet.Interfaces,
	}
}

// SetRules replaces the classification rules. Used on config reload.
func (h *SystemHost) SetRules(rules Rules) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rules = rules
}

func (h *SystemHost) currentRules() Rules {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rules
}

// Query implements netinfo.Host.
func (h *SystemHost) Query() (netinfo.NetworkInfo, error) {
	route, ok, err := readDefaultRoute(h.routeFile)
	if err != nil {
		return netinfo.NetworkInfo{}, err
	}
	if !ok {
		return netinfo.NetworkInfo{}, nil
	}

	ifaces, err := h.listInterfaces()
	if err != nil {
		return netinfo.NetworkInfo{}, err
	}

	for _, iface := range ifaces {
		if iface.Name != route.Iface {
			continue
		}
		rules := h.currentRules()
		info := netinfo.NetworkInfo{
			Active:    true,
			Connected: hasFlag(iface.Flags, "up") && len(iface.Addrs) > 0,
			Coarse:    rules.Classify(iface.Name),
		}
		if info.Coarse == netinfo.CoarseMobile || info.Coarse == netinfo.CoarseMobileDUN {
			info.CellularDetail = rules.Radios[iface.Name]
		}
		return info, nil
	}

	// Default route points at an interface that has gone away.
	return netinfo.NetworkInfo{}, nil
}

// Fingerprint hashes everything Query depends on.
func (h *SystemHost) Fingerprint() (string, error) {
	route, _, err := readDefaultRoute(h.routeFile)
	if err != nil {
		return "", err
	}
	ifaces, err := h.listInterfaces()
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(ifaces)+1)
	lines = append(lines, "route="+route.Iface)
	for _, iface := range ifaces {
		addrs := make([]string, 0, len(iface.Addrs))
		for _, a := range iface.Addrs {
			addrs = append(addrs, a.Addr)
		}
		sort.Strings(addrs)
		flags := append([]string(nil), iface.Flags...)
		sort.Strings(flags)
		lines = append(lines, fmt.Sprintf("%s|%s|%s", iface.Name, strings.Join(flags, ","), strings.Join(addrs, ",")))
	}
	sort.Strings(lines[1:])

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:]), nil
}

func (h *SystemHost) listInterfaces() (psnet.InterfaceStatList, error) {
	ifaces, err := h.interfaces()
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", netinfo.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	return ifaces, nil
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
