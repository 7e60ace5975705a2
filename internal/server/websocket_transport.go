package server

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsTransport exposes a WebSocket connection as a plain byte stream so it can
// back a Connection. Frame payloads are read back to back, so frame
// boundaries carry no meaning, and every Write goes out as one binary frame.
type wsTransport struct {
	conn         *websocket.Conn
	reader       io.Reader
	writeMu      sync.Mutex
	writeTimeout time.Duration
}

func newWSTransport(conn *websocket.Conn, maxFrameSize int64, writeTimeout time.Duration) *wsTransport {
	if maxFrameSize > 0 {
		conn.SetReadLimit(maxFrameSize)
	}
	return &wsTransport{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (t *wsTransport) Read(p []byte) (int, error) {
	for {
		if t.reader == nil {
			_, r, err := t.conn.NextReader()
			if err != nil {
				return 0, translateWSError(err)
			}
			t.reader = r
		}

		n, err := t.reader.Read(p)
		if errors.Is(err, io.EOF) {
			t.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		if err != nil {
			return n, translateWSError(err)
		}
		return n, nil
	}
}

func (t *wsTransport) Write(p []byte) (int, error) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return 0, err
		}
	}
	if err := t.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame when possible and closes the underlying socket.
func (t *wsTransport) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}

// translateWSError maps the ways a WebSocket peer can go away onto io.EOF so
// the read loop treats them like a closed stream.
func translateWSError(err error) error {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure) {
		return io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return err
}
