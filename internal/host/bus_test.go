package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

type collector struct {
	mu    sync.Mutex
	kinds []string
}

func (c *collector) handle(n netinfo.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds = append(c.kinds, n.Kind)
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.kinds...)
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBusDeliversInOrder(t *testing.T) {
	b := NewBus(16, nil, nil)
	c := &collector{}
	b.Subscribe(c.handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	want := []string{"a", "b", netinfo.KindConnectivityChange, "c"}
	for _, k := range want {
		b.Notify(k)
	}

	waitFor(t, func() bool { return len(c.snapshot()) == len(want) })
	got := c.snapshot()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivery %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBusNotifyDropsWhenFull(t *testing.T) {
	b := NewBus(2, nil, nil)

	change := netinfo.KindConnectivityChange
	if !b.Notify(change) || !b.Notify(change) {
		t.Fatal("first two notifications should be accepted")
	}
	if b.Notify(change) {
		t.Error("third notification should be dropped when queue is full")
	}
}

func TestBusKeepsLastSlotForChanges(t *testing.T) {
	b := NewBus(3, nil, nil)

	if !b.Notify(netinfo.KindPollTick) || !b.Notify(netinfo.KindNetlinkOther) {
		t.Fatal("other kinds should be accepted while two slots are free")
	}
	if b.Notify(netinfo.KindPollTick) {
		t.Error("other kinds should not take the last free slot")
	}
	if !b.Notify(netinfo.KindConnectivityChange) {
		t.Error("a change should still fit in the last slot")
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(16, nil, nil)
	c := &collector{}
	b.Subscribe(c.handle)
	if !b.Subscribed() {
		t.Fatal("Subscribed() = false after Subscribe")
	}
	b.Unsubscribe()
	if b.Subscribed() {
		t.Fatal("Subscribed() = true after Unsubscribe")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	b.Notify(netinfo.KindConnectivityChange)
	waitFor(t, func() bool { return len(b.queue) == 0 })
	time.Sleep(20 * time.Millisecond)

	if got := c.snapshot(); len(got) != 0 {
		t.Errorf("delivered %v after Unsubscribe, want nothing", got)
	}
}

func TestBusOnNotifyHook(t *testing.T) {
	b := NewBus(4, nil, nil)
	var seen []string
	b.OnNotify = func(kind string) { seen = append(seen, kind) }

	b.Notify("x")
	b.Notify("y")

	if len(seen) != 2 || seen[0] != "x" || seen[1] != "y" {
		t.Errorf("OnNotify saw %v, want [x y]", seen)
	}
}

func TestBusRunReturnsOnCancel(t *testing.T) {
	b := NewBus(1, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
