package server

import "errors"

var (
	// ErrRoomClosed - returned by Join, Leave and Broadcast once the room was shut down.
	ErrRoomClosed = errors.New("server.Room: room is closed")

	// ErrNilParticipant - returned when joining or leaving with a nil participant.
	ErrNilParticipant = errors.New("server.Room: participant is nil")

	// ErrNilTransport - returned by NewConnection without a transport.
	ErrNilTransport = errors.New("server.Connection: transport is nil")

	// ErrNilListener - returned by NewAcceptor without a listener.
	ErrNilListener = errors.New("server.Acceptor: listener is nil")

	// ErrInvalidPort - the configured port does not fit in 16 bits.
	ErrInvalidPort = errors.New("server.Config: invalid port")
)
