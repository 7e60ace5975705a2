// Package testhelpers provides common utilities and helper functions for
// testing the relay.
//
// It starts in-process relays on loopback listeners and offers stream-level
// assertions. TCP may split or coalesce chunks, so reads are compared as an
// accumulated byte stream rather than per message.
package testhelpers

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/relaychat/internal/server"
)

// DefaultTimeout bounds every blocking helper.
const DefaultTimeout = 2 * time.Second

// Logger returns a debug logger for tests.
func Logger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

// StartRoom creates a room, runs it and shuts it down when the test ends.
func StartRoom(t *testing.T, options ...server.RoomOption) *server.Room {
	t.Helper()
	room := server.NewRoom(Logger(), options...)
	go room.Run()
	t.Cleanup(func() {
		_ = room.Shutdown(time.Second)
	})
	return room
}

// StartRelay serves room over TCP on a loopback port and returns the
// acceptor. The accept loop stops when the test ends.
func StartRelay(t *testing.T, room *server.Room) *server.Acceptor {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	acceptor, err := server.NewAcceptor(listener, room, Logger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = acceptor.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})

	require.Eventually(t, func() bool {
		return acceptor.State() == server.StateListening
	}, DefaultTimeout, 5*time.Millisecond)
	return acceptor
}

// Dial connects to addr and closes the connection when the test ends.
func Dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

// ExpectStream reads from conn until len(want) bytes arrived and requires
// them to equal want.
func ExpectStream(t *testing.T, conn net.Conn, want string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(DefaultTimeout)))
	defer func() {
		_ = conn.SetReadDeadline(time.Time{})
	}()

	got := make([]byte, 0, len(want))
	buf := make([]byte, 256)
	for len(got) < len(want) {
		n, err := conn.Read(buf[:min(len(buf), len(want)-len(got))])
		got = append(got, buf[:n]...)
		require.NoError(t, err, "received so far: %q", got)
	}
	require.Equal(t, want, string(got))
}

// ExpectSilence requires that nothing arrives on conn within d.
func ExpectSilence(t *testing.T, conn net.Conn, d time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(d)))
	defer func() {
		_ = conn.SetReadDeadline(time.Time{})
	}()

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	require.Zero(t, n, "unexpected data: %q", buf[:n])
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout())
}

// WaitForMembers waits until room has exactly n members.
func WaitForMembers(t *testing.T, room *server.Room, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return room.Len() == n
	}, DefaultTimeout, 5*time.Millisecond, "expected %d members, got %d", n, room.Len())
}
