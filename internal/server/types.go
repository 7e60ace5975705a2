// Package server defines the participant and transport abstractions shared by
// the room, connections, and gateways, plus helpers for classifying close errors.
package server

//go:generate mockgen -destination=../mocks/participant_mock.go -package=mocks github.com/Tyrowin/relaychat/internal/server Participant

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// Participant is anything able to receive a broadcast message.
// The room depends only on this capability. Implementations must not block
// and must treat message as read-only, since the same slice is shared by every
// recipient and by the room history.
type Participant interface {
	Send(message []byte)
}

// Transport is the byte stream behind a Connection. Any net.Conn satisfies it.
type Transport interface {
	io.ReadWriteCloser
	RemoteAddr() net.Addr
}

// isDisconnect reports whether err means the peer went away: end of stream,
// reset, or the connection being closed locally.
func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil || isDisconnect(err) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
