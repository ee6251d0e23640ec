package host

import (
	"errors"

	"go.uber.org/zap"
)

// ErrNetlinkUnsupported is returned by Netlink.Run on platforms without
// rtnetlink.
var ErrNetlinkUnsupported = errors.New("netlink change events not supported on this platform")

// Netlink forwards kernel routing-socket events as notifications. It is the
// push counterpart of Poller.
type Netlink struct {
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewNetlink(n Notifier, log *zap.SugaredLogger) *Netlink {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Netlink{notifier: n, log: log}
}
