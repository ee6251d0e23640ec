package netinfo

import (
	"errors"
	"time"
)

// ErrPermissionDenied is returned (possibly wrapped) by a Host when the
// process lacks the privilege to read network state.
var ErrPermissionDenied = errors.New("netinfo: permission denied")

// Notification kinds delivered by a Source. Only KindConnectivityChange
// causes the observer to recompute.
const (
	KindConnectivityChange = "connectivity_change"
	KindPollTick           = "poll_tick"
	KindNetlinkOther       = "netlink_other"
)

// Notification is a single delivery from a Source.
type Notification struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
}

// Handler receives notifications from a Source.
type Handler func(Notification)

// Source is an external change-notification mechanism (OS callbacks,
// polling, pushed events, test fakes).
//
// Subscribe and Unsubscribe are called with the observer's lock held, so
// they must not invoke the handler themselves or wait for an in-flight
// delivery to finish.
type Source interface {
	Subscribe(h Handler) error
	Unsubscribe() error
}

// CoarseType is the host-reported network category prior to
// normalization. Values outside the named constants are legal and map to
// TypeOther.
type CoarseType string

const (
	CoarseWifi      CoarseType = "wifi"
	CoarseMobile    CoarseType = "mobile"
	CoarseMobileDUN CoarseType = "mobile_dun"
	CoarseBluetooth CoarseType = "bluetooth"
	CoarseEthernet  CoarseType = "ethernet"
	CoarseWimax     CoarseType = "wimax"
	CoarseVPN       CoarseType = "vpn"
)

// NetworkInfo is the raw answer to a host query.
type NetworkInfo struct {
	Active    bool
	Connected bool
	Coarse    CoarseType
	// CellularDetail is the radio technology name (e.g. "LTE"); only
	// meaningful for mobile networks.
	CellularDetail string
}

// Host answers synchronous queries about the active network.
type Host interface {
	Query() (NetworkInfo, error)
}

// Owner is the single downstream listener of an Observer.
type Owner interface {
	Publish(d Descriptor)
	SignalPermissionUnavailable()
}
