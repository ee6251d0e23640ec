package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

const writeTimeout = 10 * time.Second

type client struct {
	id   string
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer c.b.RemoveClient(c)
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.log.Debugw("ws write failed", "client", c.id, "err", err)
			return
		}
	}
}

// Broadcaster is the observer's owner: it remembers the latest descriptor
// and fans every publish out to the connected websocket clients.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool

	stateMu           sync.RWMutex
	last              *ConnectivityPayload
	permissionPending bool
	permissionDenied  bool
	permissionCount   int
	stateHook         func() netinfo.State

	// sendMu orders seq assignment with enqueueing, so every client sees
	// strictly increasing seq values.
	sendMu       sync.Mutex
	seq          uint64
	clientBuffer int
	metrics      *Metrics
	log          *zap.SugaredLogger
	now          func() time.Time

	snapshotTicker *time.Ticker
	stop           chan struct{}
	stopOnce       sync.Once
}

func NewBroadcaster(snapshotInterval time.Duration, clientBuffer int, metrics *Metrics, log *zap.SugaredLogger) *Broadcaster {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if clientBuffer <= 0 {
		clientBuffer = 64
	}
	b := &Broadcaster{
		clients:      make(map[*client]bool),
		clientBuffer: clientBuffer,
		metrics:      metrics,
		log:          log,
		now:          time.Now,
		stop:         make(chan struct{}),
	}

	if snapshotInterval > 0 {
		b.snapshotTicker = time.NewTicker(snapshotInterval)
		go b.snapshotLoop()
	}
	return b
}

// SetStateHook supplies the observer's registration state for snapshots.
func (b *Broadcaster) SetStateHook(fn func() netinfo.State) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	b.stateHook = fn
}

// Publish implements netinfo.Owner.
func (b *Broadcaster) Publish(d netinfo.Descriptor) {
	payload := &ConnectivityPayload{
		Descriptor:  d,
		IsConnected: d.IsConnected(),
		At:          b.now(),
	}

	b.stateMu.Lock()
	b.last = payload
	b.permissionDenied = b.permissionPending
	b.permissionPending = false
	b.stateMu.Unlock()

	b.metrics.observePublish(d.Type)
	b.log.Infow("connectivity published", "type", d.Type, "generation", d.CellularGeneration)
	b.broadcast(MsgConnectivity, *payload)
}

// SignalPermissionUnavailable implements netinfo.Owner.
func (b *Broadcaster) SignalPermissionUnavailable() {
	b.stateMu.Lock()
	b.permissionPending = true
	b.permissionCount++
	count := b.permissionCount
	b.stateMu.Unlock()

	b.metrics.observePermissionSignal()
	b.log.Warnw("network state permission unavailable", "count", count)
	b.broadcast(MsgPermissionUnavailable, PermissionPayload{Count: count, At: b.now()})
}

// Snapshot returns the latest published state.
//
// The state hook is called without stateMu held: the observer holds its own
// lock while publishing into this broadcaster.
func (b *Broadcaster) Snapshot() SnapshotPayload {
	b.stateMu.RLock()
	snap := SnapshotPayload{PermissionDenied: b.permissionDenied}
	if b.last != nil {
		c := *b.last
		snap.Connectivity = &c
	}
	hook := b.stateHook
	b.stateMu.RUnlock()

	if hook != nil {
		snap.State = hook()
	}
	return snap
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		b:    b,
		send: make(chan []byte, b.clientBuffer),
	}

	b.mu.Lock()
	b.clients[c] = true
	n := len(b.clients)
	b.mu.Unlock()
	b.metrics.setClients(n)

	go c.writePump()
	b.SendSnapshot(c)
	return c
}

// SendSnapshot queues a snapshot for a single client.
func (b *Broadcaster) SendSnapshot(c *client) {
	// Built before sendMu: the state hook takes the observer's lock.
	snap := b.Snapshot()

	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	data, err := b.encode(MsgSnapshot, snap)
	if err != nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
		// Client too slow, drop the snapshot
	}
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	if ok {
		delete(b.clients, c)
		close(c.send)
	}
	n := len(b.clients)
	b.mu.Unlock()

	if ok {
		b.metrics.setClients(n)
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Stop ends the periodic snapshot loop and disconnects all clients.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		if b.snapshotTicker != nil {
			b.snapshotTicker.Stop()
		}
		b.mu.Lock()
		for c := range b.clients {
			delete(b.clients, c)
			close(c.send)
		}
		b.mu.Unlock()
		b.metrics.setClients(0)
	})
}

func (b *Broadcaster) snapshotLoop() {
	for {
		select {
		case <-b.stop:
			return
		case <-b.snapshotTicker.C:
			b.broadcast(MsgSnapshot, b.Snapshot())
		}
	}
}

// encode assigns the next seq. Callers hold sendMu until the message is
// queued.
func (b *Broadcaster) encode(t MessageType, payload interface{}) ([]byte, error) {
	b.seq++
	data, err := json.Marshal(WSMessage{Type: t, Seq: b.seq, Payload: payload})
	if err != nil {
		b.log.Errorw("broadcast marshal error", "type", t, "err", err)
	}
	return data, err
}

func (b *Broadcaster) broadcast(t MessageType, payload interface{}) {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	data, err := b.encode(t, payload)
	if err != nil {
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if !b.trySend(c, data) {
			// Client can't keep up, disconnect it
			b.log.Warnw("ws client too slow, disconnecting", "client", c.id)
			b.RemoveClient(c)
		}
	}
}

// trySend queues data for c without blocking. It holds the read lock so the
// channel cannot be closed concurrently by RemoveClient.
func (b *Broadcaster) trySend(c *client, data []byte) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.clients[c] {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
