// Package server coordinates participant membership, history replay, and
// message fan-out for the relay via the Room type.
package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	joinAnnouncement  = "New user connected, total of %d!\n"
	leaveAnnouncement = "User disconnected, %d left!\n"

	// DefaultMessage is the history entry a room can be seeded with on creation.
	DefaultMessage = "Default message\n"
)

// request is one unit of work for the room loop. done is closed once the
// loop has fully applied it.
type request struct {
	participant Participant
	message     []byte
	done        chan struct{}
}

// Room owns the set of joined participants and the ordered history of every
// message it has broadcast. Join, Leave and Broadcast are serialized by a
// single event loop so each one is applied atomically relative to the others.
//
// History grows without bound for the lifetime of the room.
type Room struct {
	participants map[Participant]struct{}
	history      [][]byte
	join         chan request
	leave        chan request
	broadcast    chan request
	mutex        sync.RWMutex
	log          *slog.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
}

// RoomOption customizes a Room at construction time.
type RoomOption func(r *Room)

// WithHistory seeds the room history with the given messages, in order.
func WithHistory(messages ...[]byte) RoomOption {
	return func(r *Room) {
		for _, message := range messages {
			r.history = append(r.history, bytes.Clone(message))
		}
	}
}

// WithDefaultMessage seeds the history with DefaultMessage.
func WithDefaultMessage() RoomOption {
	return WithHistory([]byte(DefaultMessage))
}

// NewRoom creates an empty room. The returned Room does nothing until Run is
// started in its own goroutine.
func NewRoom(log *slog.Logger, options ...RoomOption) *Room {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Room{
		participants: make(map[Participant]struct{}),
		join:         make(chan request),
		leave:        make(chan request),
		broadcast:    make(chan request),
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	for _, option := range options {
		if option != nil {
			option(r)
		}
	}
	return r
}

// Run starts the room's event loop. It blocks until Shutdown is called and
// should be run in a separate goroutine.
func (r *Room) Run() {
	defer close(r.done)

	for {
		select {
		case <-r.ctx.Done():
			r.log.Info("Room stopped", "members", r.Len(), "history", r.historyLen())
			return

		case req := <-r.join:
			r.handleJoin(req.participant)
			close(req.done)

		case req := <-r.leave:
			r.handleLeave(req.participant)
			close(req.done)

		case req := <-r.broadcast:
			r.handleBroadcast(req.message)
			close(req.done)
		}
	}
}

// Join adds p to the room, replays the whole history to it and announces the
// new member count to everyone, p included. Joining twice keeps a single
// membership but replays and announces again.
func (r *Room) Join(p Participant) error {
	if p == nil {
		return ErrNilParticipant
	}
	return r.dispatch(r.join, request{participant: p})
}

// Leave removes p from the room and announces the remaining member count.
// Leaving when p is not a member is a no-op.
func (r *Room) Leave(p Participant) error {
	if p == nil {
		return ErrNilParticipant
	}
	return r.dispatch(r.leave, request{participant: p})
}

// Broadcast appends a copy of message to the history and sends it to every
// member. The caller may reuse message once Broadcast returns.
func (r *Room) Broadcast(message []byte) error {
	return r.dispatch(r.broadcast, request{message: bytes.Clone(message)})
}

// dispatch hands req to the loop and waits until it has been applied.
func (r *Room) dispatch(ch chan<- request, req request) error {
	req.done = make(chan struct{})
	select {
	case ch <- req:
	case <-r.ctx.Done():
		return ErrRoomClosed
	}
	<-req.done
	return nil
}

func (r *Room) handleJoin(p Participant) {
	r.mutex.Lock()
	r.participants[p] = struct{}{}
	count := len(r.participants)
	history := r.history
	r.mutex.Unlock()

	for _, message := range history {
		r.safeSend(p, message)
	}
	r.log.Info("Participant joined", "members", count, "replayed", len(history))

	r.handleBroadcast([]byte(fmt.Sprintf(joinAnnouncement, count)))
}

func (r *Room) handleLeave(p Participant) {
	r.mutex.Lock()
	if _, ok := r.participants[p]; !ok {
		r.mutex.Unlock()
		r.log.Debug("Ignoring leave of unknown participant")
		return
	}
	delete(r.participants, p)
	count := len(r.participants)
	r.mutex.Unlock()

	r.log.Info("Participant left", "members", count)
	r.handleBroadcast([]byte(fmt.Sprintf(leaveAnnouncement, count)))
}

// handleBroadcast appends message to the history and fans it out to a
// snapshot of the current members.
func (r *Room) handleBroadcast(message []byte) {
	r.mutex.Lock()
	r.history = append(r.history, message)
	members := lo.Keys(r.participants)
	r.mutex.Unlock()

	r.log.Debug("Broadcasting message", "members", len(members), "bytes", len(message))
	for _, p := range members {
		r.safeSend(p, message)
	}
}

func (r *Room) safeSend(p Participant, message []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Recovered from panic in participant send", "panic", rec)
		}
	}()
	p.Send(message)
}

// Len returns the current number of members.
func (r *Room) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.participants)
}

// Contains reports whether p is currently a member.
func (r *Room) Contains(p Participant) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.participants[p]
	return ok
}

// Members returns a snapshot of the current members in no particular order.
func (r *Room) Members() []Participant {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return lo.Keys(r.participants)
}

// History returns a copy of every message broadcast so far, oldest first.
func (r *Room) History() [][]byte {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return lo.Map(r.history, func(message []byte, _ int) []byte {
		return bytes.Clone(message)
	})
}

func (r *Room) historyLen() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.history)
}

// Shutdown stops the event loop and waits for it to exit, or until the
// timeout is reached. Members are not notified; their connections are left
// to the caller.
func (r *Room) Shutdown(timeout time.Duration) error {
	r.log.Info("Initiating room shutdown...")
	r.cancel()

	select {
	case <-r.done:
		return nil
	case <-time.After(timeout):
		r.log.Warn("Room shutdown timeout reached")
		return context.DeadlineExceeded
	}
}
