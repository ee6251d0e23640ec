package netinfo

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// State is the observer's registration state.
type State int

const (
	Unregistered State = iota
	Registered
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Registered:
		return "registered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText lets State appear as a string in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Observer translates host connectivity changes into descriptors and
// publishes each one to its owner.
//
// Operations are serialized by mu so that notifications arriving from
// several goroutines are handled one at a time in arrival order. The owner
// is called with mu held and must not call back into the observer.
type Observer struct {
	mu     sync.Mutex
	state  State
	source Source
	host   Host
	owner  Owner
	log    *zap.SugaredLogger
}

// NewObserver creates an unregistered observer. A nil logger disables
// logging.
func NewObserver(source Source, host Host, owner Owner, log *zap.SugaredLogger) *Observer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Observer{
		state:  Unregistered,
		source: source,
		host:   host,
		owner:  owner,
		log:    log,
	}
}

// State returns the current registration state.
func (o *Observer) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Register subscribes to the source and immediately publishes the current
// descriptor. Calling Register twice subscribes twice; callers are expected
// to avoid that.
func (o *Observer) Register() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == Registered {
		o.log.Debugw("register called while already registered")
	}
	if err := o.source.Subscribe(o.OnNotification); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	o.state = Registered
	o.updateLocked()
	return nil
}

// Unregister unsubscribes from the source. It is a no-op when the observer
// is not registered.
func (o *Observer) Unregister() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != Registered {
		return nil
	}
	if err := o.source.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	o.state = Unregistered
	return nil
}

// OnNotification is the handler installed on the source. Notifications of
// other kinds, or ones that race with Unregister, are ignored.
func (o *Observer) OnNotification(n Notification) {
	if n.Kind != KindConnectivityChange {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Registered {
		return
	}
	o.updateLocked()
}

func (o *Observer) updateLocked() {
	o.owner.Publish(o.compute())
}

// compute queries the host and maps the answer to a descriptor. A
// permission failure signals the owner once and yields TypeUnknown.
func (o *Observer) compute() Descriptor {
	info, err := o.host.Query()
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			o.owner.SignalPermissionUnavailable()
		} else {
			o.log.Warnw("network query failed", "err", err)
		}
		return Descriptor{Type: TypeUnknown}
	}
	return Describe(info)
}

// Describe maps raw network info to a descriptor.
func Describe(info NetworkInfo) Descriptor {
	if !info.Active || !info.Connected {
		return Descriptor{Type: TypeNone}
	}

	switch info.Coarse {
	case CoarseWifi:
		return Descriptor{Type: TypeWifi}
	case CoarseMobile, CoarseMobileDUN:
		return Descriptor{
			Type:               TypeCellular,
			CellularGeneration: GenerationForRadio(info.CellularDetail),
		}
	case CoarseBluetooth:
		return Descriptor{Type: TypeBluetooth}
	case CoarseEthernet:
		return Descriptor{Type: TypeEthernet}
	case CoarseWimax:
		return Descriptor{Type: TypeWimax}
	case CoarseVPN:
		return Descriptor{Type: TypeVPN}
	default:
		return Descriptor{Type: TypeOther}
	}
}
