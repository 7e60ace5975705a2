// Package server implements the broadcast relay: a Room that keeps the
// participant set and message history, Connections that pump bytes between a
// transport and the room, an Acceptor that serves raw TCP, and a Gateway that
// admits WebSocket participants into the same room.
package server
