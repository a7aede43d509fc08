package types

import (
	"github.com/blackjack-live/backend/internal/blackjack"
	"github.com/blackjack-live/backend/internal/room"
)

// ClientMessage is what a connected player sends over the socket.
type ClientMessage struct {
	Type   string `json:"type"` // "PlaceBet" | "SubmitMove" | "LeaveRound"
	Amount int64  `json:"amount,omitempty"`
	Move   string `json:"move,omitempty"` // "hit" | "stand" | "doubleDown"
	// TurnGen echoes the generation from the PlayerTurn event so duplicate
	// submissions for the same turn are rejected server-side.
	TurnGen uint64 `json:"turn_gen,omitempty"`
}

// ServerMessage is pushed to every member on each accepted mutation, or to
// one member when their command is rejected.
type ServerMessage struct {
	Type    string            `json:"type"` // "RoomUpdate" | "Error"
	Version int               `json:"version,omitempty"`
	Events  []blackjack.Event `json:"events,omitempty"`
	View    *room.View        `json:"view,omitempty"`
	Error   string            `json:"error,omitempty"`
}
