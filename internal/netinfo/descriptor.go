// Package netinfo normalizes host network state into a connectivity
// descriptor and publishes it to a single owner whenever the host reports a
// connectivity change.
package netinfo

import "strings"

// ConnectionType is the normalized connectivity category published to the
// owner. The string values are the wire representation.
type ConnectionType string

const (
	TypeNone      ConnectionType = "none"
	TypeWifi      ConnectionType = "wifi"
	TypeCellular  ConnectionType = "cellular"
	TypeBluetooth ConnectionType = "bluetooth"
	TypeEthernet  ConnectionType = "ethernet"
	TypeWimax     ConnectionType = "wimax"
	TypeVPN       ConnectionType = "vpn"
	TypeOther     ConnectionType = "other"
	TypeUnknown   ConnectionType = "unknown"
)

// CellularGeneration is the effective radio generation of a cellular
// connection. The empty value means absent.
type CellularGeneration string

const (
	Generation2G CellularGeneration = "2g"
	Generation3G CellularGeneration = "3g"
	Generation4G CellularGeneration = "4g"
	Generation5G CellularGeneration = "5g"
)

// Descriptor is the immutable value published on every computation.
// CellularGeneration is only ever set when Type is TypeCellular.
type Descriptor struct {
	Type               ConnectionType     `json:"type"`
	CellularGeneration CellularGeneration `json:"cellularGeneration,omitempty"`
}

// IsConnected reports whether the descriptor describes a usable network.
// Unknown is treated as not connected.
func (d Descriptor) IsConnected() bool {
	return d.Type != TypeNone && d.Type != TypeUnknown
}

func (d Descriptor) String() string {
	if d.CellularGeneration != "" {
		return string(d.Type) + "/" + string(d.CellularGeneration)
	}
	return string(d.Type)
}

// radioGenerations maps radio access technologies to their generation.
var radioGenerations = map[string]CellularGeneration{
	"GPRS":   Generation2G,
	"EDGE":   Generation2G,
	"CDMA":   Generation2G,
	"1XRTT":  Generation2G,
	"IDEN":   Generation2G,
	"UMTS":   Generation3G,
	"EVDO_0": Generation3G,
	"EVDO_A": Generation3G,
	"EVDO_B": Generation3G,
	"HSDPA":  Generation3G,
	"HSUPA":  Generation3G,
	"HSPA":   Generation3G,
	"HSPAP":  Generation3G,
	"EHRPD":  Generation3G,
	"LTE":    Generation4G,
	"NR":     Generation5G,
}

// GenerationForRadio returns the generation for a radio technology name,
// or the empty generation if the name is unknown.
func GenerationForRadio(radio string) CellularGeneration {
	return radioGenerations[strings.ToUpper(strings.TrimSpace(radio))]
}
