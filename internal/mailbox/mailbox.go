// Package mailbox provides the FIFO queue abstraction that decouples
// protocol tasks from the transport loops. One mailbox carries both
// directions of traffic for one runtime, with an independent queue per
// (transport, routing key) pair.
package mailbox

import (
	"sync"

	"github.com/netpad-project/netpad/internal/protocol"
)

// Key addresses one queue: a transport kind plus a routing key (a local
// slot number on the controller side, an account on the game side).
type Key[K comparable] struct {
	Transport protocol.Transport
	Route     K
}

// Mailbox holds per-key inbound and outbound FIFO queues. Queues are
// created lazily on first access and never shared across keys. Every
// operation is non-blocking and cannot fail; absence is "no message".
type Mailbox[In any, Out any, K comparable] struct {
	mu       sync.Mutex
	inbound  map[Key[K]][]In
	outbound map[Key[K]][]Out
}

// New creates an empty mailbox.
func New[In any, Out any, K comparable]() *Mailbox[In, Out, K] {
	return &Mailbox[In, Out, K]{
		inbound:  make(map[Key[K]][]In),
		outbound: make(map[Key[K]][]Out),
	}
}

// Send appends an outbound message to the queue for (transport, route).
func (m *Mailbox[In, Out, K]) Send(msg Out, route K, transport protocol.Transport) {
	k := Key[K]{transport, route}
	m.mu.Lock()
	m.outbound[k] = append(m.outbound[k], msg)
	m.mu.Unlock()
}

// Receive pops the oldest inbound message for (transport, route).
func (m *Mailbox[In, Out, K]) Receive(route K, transport protocol.Transport) (In, bool) {
	k := Key[K]{transport, route}
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.inbound[k]
	if len(q) == 0 {
		var zero In
		return zero, false
	}
	msg := q[0]
	m.inbound[k] = q[1:]
	return msg, true
}

// PopOutbound pops the oldest outbound message for (transport, route).
// This is the transport-facing counterpart of Send.
func (m *Mailbox[In, Out, K]) PopOutbound(route K, transport protocol.Transport) (Out, bool) {
	k := Key[K]{transport, route}
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.outbound[k]
	if len(q) == 0 {
		var zero Out
		return zero, false
	}
	msg := q[0]
	m.outbound[k] = q[1:]
	return msg, true
}

// PutInbound appends an inbound message to the queue for (transport, route).
// This is the transport-facing counterpart of Receive.
func (m *Mailbox[In, Out, K]) PutInbound(msg In, route K, transport protocol.Transport) {
	k := Key[K]{transport, route}
	m.mu.Lock()
	m.inbound[k] = append(m.inbound[k], msg)
	m.mu.Unlock()
}

// Clear drops both queues for (transport, route). Used when a routing key
// goes away, e.g. a player signing offline.
func (m *Mailbox[In, Out, K]) Clear(route K, transport protocol.Transport) {
	k := Key[K]{transport, route}
	m.mu.Lock()
	delete(m.inbound, k)
	delete(m.outbound, k)
	m.mu.Unlock()
}

// PendingOutbound reports the queued outbound count for (transport, route).
func (m *Mailbox[In, Out, K]) PendingOutbound(route K, transport protocol.Transport) int {
	k := Key[K]{transport, route}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outbound[k])
}

// PendingInbound reports the queued inbound count for (transport, route).
func (m *Mailbox[In, Out, K]) PendingInbound(route K, transport protocol.Transport) int {
	k := Key[K]{transport, route}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inbound[k])
}
