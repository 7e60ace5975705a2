// Package server exposes HTTP handlers, including the WebSocket upgrade that
// lets browser participants join the room, and a health check.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Gateway admits WebSocket participants into a room. Each upgraded socket
// becomes a regular Connection, so WebSocket and TCP participants share the
// same membership and history.
type Gateway struct {
	room         *Room
	log          *slog.Logger
	upgrader     websocket.Upgrader
	maxFrameSize int64
	writeTimeout time.Duration
}

// NewGateway creates a Gateway for room using the WebSocket settings of cfg.
func NewGateway(room *Room, cfg Config, log *slog.Logger) *Gateway {
	log = log.With("transport", "websocket")
	policy := newOriginPolicy(cfg.Origins(), log)

	return &Gateway{
		room: room,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.checkOrigin,
		},
		maxFrameSize: int64(cfg.MaxFrameSize),
		writeTimeout: cfg.WriteTimeout,
	}
}

// WebSocketHandler handles WebSocket upgrade requests. It validates that the
// request uses the GET method, upgrades the HTTP connection and joins the
// resulting connection to the room.
func (g *Gateway) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	transport := newWSTransport(conn, g.maxFrameSize, g.writeTimeout)
	if _, err := attach(transport, g.room, g.log); err != nil {
		g.log.Error("Unable to join connection to the room", "remote", r.RemoteAddr, "error", err)
	}
}

// HealthHandler reports that the relay is up along with its member count.
func (g *Gateway) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Relay is running! %d participants connected", g.room.Len())
}
