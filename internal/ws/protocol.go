package ws

import (
	"time"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

type MessageType string

const (
	MsgSnapshot              MessageType = "snapshot"
	MsgConnectivity          MessageType = "connectivity"
	MsgPermissionUnavailable MessageType = "permission_unavailable"
	MsgError                 MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Seq     uint64      `json:"seq"`
	Payload interface{} `json:"payload"`
}

// SnapshotPayload is sent to new clients, on resync, and periodically.
// Connectivity is nil until the observer has published once.
type SnapshotPayload struct {
	Connectivity     *ConnectivityPayload `json:"connectivity"`
	State            netinfo.State        `json:"state"`
	PermissionDenied bool                 `json:"permissionDenied"`
}

type ConnectivityPayload struct {
	netinfo.Descriptor
	IsConnected bool      `json:"isConnected"`
	At          time.Time `json:"at"`
}

type PermissionPayload struct {
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// clientMessage is what clients may send over the socket.
type clientMessage struct {
	Type string `json:"type"`
}
