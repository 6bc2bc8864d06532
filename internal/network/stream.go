// Package network drives the TCP protocol: the pre-session handshake on
// both sides and the long-connection read/write loops that bridge wire
// frames and runtime mailboxes.
package network

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"time"

	"github.com/netpad-project/netpad/internal/protocol"
)

// maxErrTolerance is how many consecutive decode-failure sentinels a read
// loop accepts before treating the connection as fatal.
const maxErrTolerance = 16

var (
	// errClosing signals a clean local shutdown observed mid-read.
	errClosing = errors.New("local close requested")
	// errPeerIdle signals that the peer sent nothing for the idle window.
	errPeerIdle = errors.New("peer idle timeout")
)

// readFramePolling reads one frame, waking every poll interval to check
// the closed callback so a stalled peer cannot block shutdown forever.
// Polling applies only while waiting for the length prefix; once a frame
// has started the payload must arrive within the idle window.
func readFramePolling(conn net.Conn, poll, idle time.Duration, closed func() bool) ([]byte, error) {
	var prefix [2]byte
	got := 0
	idleAt := time.Now().Add(idle)

	for got < len(prefix) {
		if closed() {
			return nil, errClosing
		}
		_ = conn.SetReadDeadline(time.Now().Add(poll))
		n, err := conn.Read(prefix[got:])
		got += n
		if err != nil {
			if isTimeout(err) {
				if time.Now().After(idleAt) {
					return nil, errPeerIdle
				}
				continue
			}
			return nil, err
		}
	}

	length := binary.BigEndian.Uint16(prefix[:])
	payload := make([]byte, length)
	_ = conn.SetReadDeadline(time.Now().Add(idle))
	if _, err := io.ReadFull(conn, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// writeFrame writes one frame under a write deadline.
func writeFrame(conn net.Conn, payload []byte, timeout time.Duration) error {
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	return protocol.WriteFrame(conn, payload)
}

// readFrameOnce reads one frame under a single deadline; used for the
// request/response handshake phases where polling is unnecessary.
func readFrameOnce(conn net.Conn, timeout time.Duration) ([]byte, error) {
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	return protocol.ReadFrame(conn)
}
