// Package controller holds the client-side authoritative state: the bound
// player, the outbound control intents and the inbound game messages.
package controller

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/netpad-project/netpad/internal/mailbox"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/protocol"
)

// localRoute is the single routing slot a controller uses for its own
// traffic; controllers only ever talk to one game at a time.
const localRoute uint8 = 0

// Data describes a controller before its runtime exists.
type Data struct {
	Player model.Player
}

// Runtime builds the controller-side runtime around the bound player.
func (d Data) Runtime(logger *slog.Logger) *Runtime {
	return &Runtime{
		player:    d.Player,
		transport: protocol.TransportTCP,
		box:       mailbox.New[protocol.GameMessage, protocol.ControlMessage, uint8](),
		logger:    logger.With(slog.String("component", "controller_runtime")),
	}
}

// Runtime is shared between the application and the network layer's read
// and write tasks. Intent operations enqueue control messages; the network
// write task drains them; the read task fills the inbound side.
type Runtime struct {
	player    model.Player
	transport protocol.Transport
	box       *mailbox.Mailbox[protocol.GameMessage, protocol.ControlMessage, uint8]
	closed    atomic.Bool
	logger    *slog.Logger

	mu       sync.RWMutex
	gameInfo model.GameInfo
}

// Player returns the bound player.
func (r *Runtime) Player() model.Player {
	return r.player
}

// Transport returns the active transport kind.
func (r *Runtime) Transport() protocol.Transport {
	return r.transport
}

// Message queues a plain text message for the game.
func (r *Runtime) Message(text string) {
	r.send(protocol.ControlMessage{Kind: protocol.ControlMsg, Text: text})
}

// Press queues a button press.
func (r *Runtime) Press(key uint8) {
	r.send(protocol.ControlMessage{Kind: protocol.ControlPressed, Key: key})
}

// Release queues a button release.
func (r *Runtime) Release(key uint8) {
	r.send(protocol.ControlMessage{Kind: protocol.ControlReleased, Key: key})
}

// Axis queues an axis value change.
func (r *Runtime) Axis(key uint8, value float64) {
	r.send(protocol.ControlMessage{Kind: protocol.ControlAxis, Key: key, Value: value})
}

// Direction queues a directional value change.
func (r *Runtime) Direction(key uint8, x, y float64) {
	r.send(protocol.ControlMessage{Kind: protocol.ControlDir, Key: key, X: x, Y: y})
}

// Exit queues a disconnect request.
func (r *Runtime) Exit() {
	r.send(protocol.ControlMessage{Kind: protocol.ControlExit})
}

// Pop dequeues one inbound game message, if any.
func (r *Runtime) Pop() (protocol.GameMessage, bool) {
	return r.box.Receive(localRoute, r.transport)
}

// Close sets the close flag. One-way and idempotent; the network write
// task observes the flag and performs the wire-level goodbye.
func (r *Runtime) Close() {
	if r.closed.CompareAndSwap(false, true) {
		r.logger.Debug("controller runtime closed")
	}
}

// Closed reports whether Close has been called.
func (r *Runtime) Closed() bool {
	return r.closed.Load()
}

// SetGameInfo stores the info map downloaded during the handshake.
func (r *Runtime) SetGameInfo(info model.GameInfo) {
	r.mu.Lock()
	r.gameInfo = info
	r.mu.Unlock()
}

// GameInfo returns the last downloaded info map (nil before the handshake).
func (r *Runtime) GameInfo() model.GameInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gameInfo
}

// Mailbox exposes the underlying mailbox to the network layer.
func (r *Runtime) Mailbox() *mailbox.Mailbox[protocol.GameMessage, protocol.ControlMessage, uint8] {
	return r.box
}

// Send queues an outbound control message directly. The intent methods are
// preferred; this exists for the network layer's goodbye sequence.
func (r *Runtime) Send(msg protocol.ControlMessage) {
	r.send(msg)
}

func (r *Runtime) send(msg protocol.ControlMessage) {
	r.box.Send(msg, localRoute, r.transport)
}

// PutInbound queues an inbound game message for the application to Pop.
func (r *Runtime) PutInbound(msg protocol.GameMessage) {
	r.box.PutInbound(msg, localRoute, r.transport)
}

// PopOutbound dequeues one outbound control message for transmission.
func (r *Runtime) PopOutbound() (protocol.ControlMessage, bool) {
	return r.box.PopOutbound(localRoute, r.transport)
}
