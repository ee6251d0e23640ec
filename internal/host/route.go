package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

// DefaultRouteFile is the kernel's IPv4 routing table.
const DefaultRouteFile = "/proc/net/route"

const rtfUp = 0x1

// defaultRoute is the interface carrying the IPv4 default route.
type defaultRoute struct {
	Iface  string
	Metric int
}

// readDefaultRoute returns the default route with the lowest metric. ok is
// false when the table has no default route.
func readDefaultRoute(path string) (route defaultRoute, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return defaultRoute{}, false, fmt.Errorf("%w: %v", netinfo.ErrPermissionDenied, err)
		}
		return defaultRoute{}, false, fmt.Errorf("open route table: %w", err)
	}
	defer f.Close()
	return parseDefaultRoute(f)
}

func parseDefaultRoute(r io.Reader) (route defaultRoute, ok bool, err error) {
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		if first {
			// Header: Iface Destination Gateway Flags RefCnt Use Metric Mask ...
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 8 {
			continue
		}
		if fields[1] != "00000000" || fields[7] != "00000000" {
			continue
		}
		flags, err := strconv.ParseUint(fields[3], 16, 32)
		if err != nil || flags&rtfUp == 0 {
			continue
		}
		metric, err := strconv.Atoi(fields[6])
		if err != nil {
			continue
		}
		if !ok || metric < route.Metric {
			route = defaultRoute{Iface: fields[0], Metric: metric}
			ok = true
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return defaultRoute{}, false, fmt.Errorf("%w: %v", netinfo.ErrPermissionDenied, err)
		}
		return defaultRoute{}, false, fmt.Errorf("read route table: %w", err)
	}
	return route, ok, nil
}
