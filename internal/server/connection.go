// Package server manages individual relay connections, handling the read and
// write pumps and lifecycle control for each transport.
package server

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// readBufferSize bounds a single read. Whatever one read returns is relayed
// as one message; no framing is applied.
const readBufferSize = 128

// Connection is one participant backed by a Transport. It forwards every
// chunk it reads to its room and writes every message the room sends it.
//
// A Connection is referenced by its own pumps and by the room membership set
// at the same time and stays alive until both let go of it.
type Connection struct {
	id        uuid.UUID
	transport Transport
	room      *Room
	addr      string
	log       *slog.Logger

	mu      sync.Mutex
	pending [][]byte
	notify  chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewConnection wraps transport into a Connection bound to room. The
// connection is inert until Start is called.
func NewConnection(transport Transport, room *Room, log *slog.Logger) (*Connection, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	addr := "unknown"
	if remote := transport.RemoteAddr(); remote != nil {
		addr = remote.String()
	}
	id := uuid.New()

	return &Connection{
		id:        id,
		transport: transport,
		room:      room,
		addr:      addr,
		log:       log.With("conn_id", id.String(), "remote", addr),
		notify:    make(chan struct{}, 1),
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// ID returns the identifier of this connection. IDs are never reused.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// RemoteAddr returns the peer address as reported by the transport.
func (c *Connection) RemoteAddr() string {
	return c.addr
}

// Done is closed once both pumps have stopped.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Send queues message for writing and returns immediately, so a slow peer
// never stalls the room. Messages are written in the order they were queued.
func (c *Connection) Send(message []byte) {
	select {
	case <-c.closed:
		return
	default:
	}

	c.mu.Lock()
	c.pending = append(c.pending, message)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Start launches the write pump and the read loop.
func (c *Connection) Start() {
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.writePump()
	}()
	go func() {
		defer c.wg.Done()
		c.readPump()
	}()
	go func() {
		c.wg.Wait()
		close(c.done)
	}()
}

// Close closes the transport. The read loop then sees the closed transport,
// leaves the room and stops. Close is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if err := c.transport.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn("Error closing transport", "error", err)
		}
	})
}

// readPump relays every chunk read from the transport to the room. It only
// exits on end of stream or error, and always leaves the room on its way out.
func (c *Connection) readPump() {
	defer func() {
		if err := c.room.Leave(c); err != nil && !errors.Is(err, ErrRoomClosed) {
			c.log.Error("Error leaving room", "error", err)
		}
		c.Close()
	}()

	buf := make([]byte, readBufferSize)
	for {
		n, err := c.transport.Read(buf)
		if n > 0 {
			c.log.Debug("Message read", "bytes", n)
			if berr := c.room.Broadcast(buf[:n]); berr != nil {
				c.log.Warn("Dropping message", "error", berr)
				return
			}
		}
		if err != nil {
			c.handleReadError(err)
			return
		}
	}
}

// handleReadError logs why the read loop stopped. A peer going away is the
// normal way out and is not reported as an error.
func (c *Connection) handleReadError(err error) {
	if isDisconnect(err) {
		c.log.Info("Participant disconnected")
		return
	}
	c.log.Error("Read failed", "error", err)
}

func (c *Connection) writePump() {
	for {
		select {
		case <-c.notify:
			for _, message := range c.drain() {
				c.write(message)
			}
		case <-c.closed:
			return
		}
	}
}

// drain takes every queued message, leaving the queue empty.
func (c *Connection) drain() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.pending
	c.pending = nil
	return pending
}

// write sends one message in full. A failed write is logged and the
// connection stays in the room: only the read side decides it is gone.
func (c *Connection) write(message []byte) {
	if _, err := c.transport.Write(message); err != nil {
		select {
		case <-c.closed:
			return
		default:
		}
		c.log.Error("Write failed", "error", err, "bytes", len(message))
		return
	}
	c.log.Debug("Message sent", "bytes", len(message))
}

// attach builds a Connection for transport, joins it to room and starts it.
// The transport is closed if anything fails along the way.
func attach(transport Transport, room *Room, log *slog.Logger) (*Connection, error) {
	conn, err := NewConnection(transport, room, log)
	if err != nil {
		return nil, err
	}
	if err := room.Join(conn); err != nil {
		conn.Close()
		return nil, err
	}
	conn.Start()
	conn.log.Info("Connection accepted", "members", room.Len())
	return conn, nil
}
