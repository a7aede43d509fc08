// Package hub owns the set of live rooms. One actor goroutine serializes
// room creation and lookup; each room then runs its own actor, so rounds
// in different rooms proceed fully in parallel.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/blackjack-live/backend/internal/blackjack"
	"github.com/blackjack-live/backend/internal/room"
)

type Msg interface{ isHubMsg() }

type EnsureRoom struct {
	Code string
	// State is only used if creation happens, e.g. a restored snapshot.
	State *blackjack.State
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct{ Code string }

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Deps is everything a new room needs besides its code.
type Deps struct {
	Config   room.Config
	Accounts room.Accounts
	Payouts  room.Payouts
	Snaps    room.Snapshots
	Log      *zap.Logger
}

type Hub struct {
	inbox  chan Msg
	rooms  map[string]*room.Room
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, deps Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan Msg, 64),
		rooms:  make(map[string]*room.Room),
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				if r := h.rooms[msg.Code]; r != nil {
					msg.Reply <- r
					break
				}
				r := room.New(h.ctx, msg.Code, msg.State, h.deps.Config,
					h.deps.Accounts, h.deps.Payouts, h.deps.Snaps, h.deps.Log)
				h.rooms[msg.Code] = r
				msg.Reply <- r

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				if r := h.rooms[msg.Code]; r != nil {
					r.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, r := range h.rooms {
		r.Inbox() <- room.Shutdown{}
	}
	clear(h.rooms)
	h.cancel()
}
