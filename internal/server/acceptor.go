// Package server accepts stream connections on a listener and binds each of
// them to the shared room through the Acceptor type.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

// AcceptorState is the lifecycle state of an Acceptor.
type AcceptorState int32

const (
	// StateStopped - the accept loop is not running.
	StateStopped AcceptorState = iota
	// StateListening - the accept loop is active.
	StateListening
)

func (s AcceptorState) String() string {
	switch s {
	case StateListening:
		return "LISTENING"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("AcceptorState(%d)", int32(s))
	}
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Acceptor owns the listening endpoint and joins every accepted connection to
// the room.
type Acceptor struct {
	listener net.Listener
	room     *Room
	log      *slog.Logger
	state    atomic.Int32
}

// NewAcceptor creates an Acceptor serving room on listener.
func NewAcceptor(listener net.Listener, room *Room, log *slog.Logger) (*Acceptor, error) {
	if listener == nil {
		return nil, ErrNilListener
	}
	return &Acceptor{
		listener: listener,
		room:     room,
		log:      log,
	}, nil
}

// Addr returns the listener's network address.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// State returns the current lifecycle state.
func (a *Acceptor) State() AcceptorState {
	return AcceptorState(a.state.Load())
}

// Run accepts connections until ctx is canceled, then closes the listener and
// returns nil. A failed accept is logged and retried after a short delay.
// Open connections are left as they are when Run returns.
func (a *Acceptor) Run(ctx context.Context) error {
	a.state.Store(int32(StateListening))
	defer a.state.Store(int32(StateStopped))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			if err := a.listener.Close(); err != nil && !isExpectedCloseError(err) {
				a.log.Warn("Error closing listener", "error", err)
			}
		case <-stop:
		}
	}()

	a.log.Info("Relay listening", "address", a.listener.Addr().String())

	var delay time.Duration
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				a.log.Info("Relay stopped accepting connections")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}

			delay = nextAcceptDelay(delay)
			a.log.Error("Accept failed", "error", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0

		if _, err := attach(conn, a.room, a.log); err != nil {
			a.log.Error("Unable to join connection to the room", "remote", conn.RemoteAddr().String(), "error", err)
		}
	}
}

func nextAcceptDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}
	delay *= 2
	if delay > maxAcceptDelay {
		delay = maxAcceptDelay
	}
	return delay
}
