package client

import (
	"encoding/json"
	"time"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

// MessageType mirrors the daemon's websocket message types.
type MessageType string

const (
	MsgSnapshot              MessageType = "snapshot"
	MsgConnectivity          MessageType = "connectivity"
	MsgPermissionUnavailable MessageType = "permission_unavailable"
	MsgError                 MessageType = "error"
)

// WSMessage is the envelope for all daemon messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// Connectivity is one published descriptor.
type Connectivity struct {
	netinfo.Descriptor
	IsConnected bool      `json:"isConnected"`
	At          time.Time `json:"at"`
}

// SnapshotPayload is the daemon's full state. Connectivity is nil until the
// observer has published.
type SnapshotPayload struct {
	Connectivity     *Connectivity `json:"connectivity"`
	State            string        `json:"state"`
	PermissionDenied bool          `json:"permissionDenied"`
}

type PermissionPayload struct {
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ObserverState is returned by the register and unregister endpoints.
type ObserverState struct {
	State string `json:"state"`
}
