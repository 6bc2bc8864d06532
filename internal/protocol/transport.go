// Package protocol defines the closed message sets exchanged between a
// controller and a game, their compact binary encoding, and the
// length-prefixed framing used on stream transports.
package protocol

// DefaultPort is the TCP port games listen on unless overridden.
const DefaultPort = 5989

// Transport enumerates the media a mailbox queue or connection is scoped
// to. Only TCP is implemented; Bluetooth and USB are reserved names.
type Transport uint8

const (
	TransportTCP Transport = iota
	TransportBluetooth
	TransportUSB
)

func (t Transport) String() string {
	switch t {
	case TransportTCP:
		return "tcp"
	case TransportBluetooth:
		return "bluetooth"
	case TransportUSB:
		return "usb"
	default:
		return "unknown"
	}
}

// Supported reports whether the transport has a working implementation.
func (t Transport) Supported() bool {
	return t == TransportTCP
}
