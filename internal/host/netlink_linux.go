//go:build linux

package host

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

const netlinkGroups = unix.RTMGRP_LINK | unix.RTMGRP_IPV4_IFADDR | unix.RTMGRP_IPV6_IFADDR | unix.RTMGRP_IPV4_ROUTE

// recvTimeout bounds how long Run waits before rechecking ctx.
const recvTimeout = 500 * time.Millisecond

// Run listens on an rtnetlink socket until ctx is cancelled.
func (w *Netlink) Run(ctx context.Context) error {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		return fmt.Errorf("netlink socket: %w", err)
	}
	defer unix.Close(fd)

	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: netlinkGroups}); err != nil {
		return fmt.Errorf("netlink bind: %w", err)
	}
	tv := unix.NsecToTimeval(recvTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return fmt.Errorf("netlink timeout: %w", err)
	}

	w.log.Infow("netlink watcher started")
	buf := make([]byte, 1<<16)
	for {
		if ctx.Err() != nil {
			w.log.Infow("netlink watcher stopped")
			return nil
		}
		n, _, err := unix.Recvfrom(fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("netlink recv: %w", err)
		}
		for _, kind := range netlinkKinds(buf[:n]) {
			w.notifier.Notify(kind)
		}
	}
}

// netlinkKinds returns one notification kind per message in a netlink
// datagram. Truncated trailing data is ignored.
func netlinkKinds(b []byte) []string {
	var kinds []string
	for len(b) >= unix.SizeofNlMsghdr {
		length := binary.NativeEndian.Uint32(b[0:4])
		typ := binary.NativeEndian.Uint16(b[4:6])
		if length < unix.SizeofNlMsghdr || int(length) > len(b) {
			break
		}

		switch typ {
		case unix.NLMSG_NOOP, unix.NLMSG_DONE:
		case unix.RTM_NEWLINK, unix.RTM_DELLINK,
			unix.RTM_NEWADDR, unix.RTM_DELADDR,
			unix.RTM_NEWROUTE, unix.RTM_DELROUTE:
			kinds = append(kinds, netinfo.KindConnectivityChange)
		default:
			kinds = append(kinds, netinfo.KindNetlinkOther)
		}

		next := int((length + unix.NLMSG_ALIGNTO - 1) &^ (unix.NLMSG_ALIGNTO - 1))
		if next > len(b) {
			break
		}
		b = b[next:]
	}
	return kinds
}
