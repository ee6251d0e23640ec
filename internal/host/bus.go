// Package host provides notification sources and host network queries for
// the connectivity observer.
package host

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

// DefaultQueueSize is the notification buffer used when none is configured.
const DefaultQueueSize = 64

// Bus is a netinfo.Source fed by any number of producers (poller, netlink,
// HTTP push). Notifications are queued and delivered one at a time, in
// arrival order, from the goroutine running Run.
type Bus struct {
	mu      sync.Mutex
	handler netinfo.Handler
	queue   chan netinfo.Notification
	clock   clock.Clock
	log     *zap.SugaredLogger

	// OnNotify, if set, is called for every accepted notification. Used
	// for metrics.
	OnNotify func(kind string)
}

// NewBus creates a bus with the given queue size.
func NewBus(queueSize int, clk clock.Clock, log *zap.SugaredLogger) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bus{
		queue: make(chan netinfo.Notification, queueSize),
		clock: clk,
		log:   log,
	}
}

// Subscribe installs h as the single handler, replacing any previous one.
func (b *Bus) Subscribe(h netinfo.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
	return nil
}

// Unsubscribe removes the handler. A delivery already in progress is not
// waited for.
func (b *Bus) Unsubscribe() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = nil
	return nil
}

// Subscribed reports whether a handler is installed.
func (b *Bus) Subscribed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handler != nil
}

// Notify enqueues a notification of the given kind. It never blocks: when
// the queue is full the notification is dropped and false is returned.
// The last free slot is kept for connectivity changes, so a burst of other
// kinds cannot crowd a change out.
func (b *Bus) Notify(kind string) bool {
	if kind != netinfo.KindConnectivityChange && len(b.queue) >= cap(b.queue)-1 {
		b.log.Debugw("notification queue nearly full, dropping", "kind", kind)
		return false
	}
	n := netinfo.Notification{Kind: kind, At: b.clock.Now()}
	select {
	case b.queue <- n:
		if b.OnNotify != nil {
			b.OnNotify(kind)
		}
		return true
	default:
		b.log.Warnw("notification queue full, dropping", "kind", kind)
		return false
	}
}

// Run delivers queued notifications until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-b.queue:
			b.deliver(n)
		}
	}
}

func (b *Bus) deliver(n netinfo.Notification) {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h == nil {
		return
	}
	start := b.clock.Now()
	h(n)
	if d := b.clock.Since(start); d > time.Second {
		b.log.Warnw("slow notification handler", "kind", n.Kind, "took", d)
	}
}
