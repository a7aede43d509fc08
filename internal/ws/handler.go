package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackjack-live/backend/internal/blackjack"
	"github.com/blackjack-live/backend/internal/hub"
	"github.com/blackjack-live/backend/internal/room"
	"github.com/blackjack-live/backend/pkg/types"
)

// Handler upgrades a client into a room: events stream out, commands come
// in. Identity arrives as a query param; authentication is handled by the
// proxy in front of this service.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		playerID := r.URL.Query().Get("player")
		if playerID == "" {
			playerID = uuid.NewString()
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan room.Envelope, 16)
		joinReply := make(chan room.JoinReply, 1)
		rm.Inbox() <- room.Join{ClientID: playerID, Outbox: out, Reply: joinReply}
		jr := <-joinReply
		if jr.Err != nil {
			writeError(r.Context(), conn, jr.Err.Error())
			return
		}
		// The token scopes the cleanup to this connection: after a reconnect
		// the room drops this Leave instead of tearing down the replacement.
		defer func() { rm.Inbox() <- room.Leave{ClientID: playerID, Conn: jr.Conn} }()

		// Writer goroutine: envelopes out of the room, frames onto the wire.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for env := range out {
				view := env.View
				msg := types.ServerMessage{
					Type:    "RoomUpdate",
					Version: env.Version,
					Events:  env.Events,
					View:    &view,
				}
				payload, err := json.Marshal(msg)
				if err != nil {
					log.Error("marshal room update", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 5*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop. The generous timeout covers a full betting window
		// plus a turn of idling.
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Leave in the defer treats the drop like a timeout.
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			if err := dispatch(rm, playerID, cm); err != nil {
				// Rejections go only to the originating client.
				writeError(r.Context(), conn, err.Error())
			}
		}
	}
}

func dispatch(rm *room.Room, playerID string, cm types.ClientMessage) error {
	switch cm.Type {
	case "PlaceBet":
		reply := make(chan error, 1)
		rm.Inbox() <- room.PlaceBet{PlayerID: playerID, Amount: cm.Amount, Reply: reply}
		return <-reply

	case "SubmitMove":
		move, ok := parseMove(cm.Move)
		if !ok {
			return blackjack.ErrUnsupportedMove
		}
		reply := make(chan error, 1)
		rm.Inbox() <- room.SubmitMove{PlayerID: playerID, Move: move, TurnGen: cm.TurnGen, Reply: reply}
		return <-reply

	case "LeaveRound":
		// Withdraws the seat only; the client stays connected as a spectator.
		rm.Inbox() <- room.WithdrawSeat{PlayerID: playerID}
		return nil

	default:
		return blackjack.ErrUnsupportedCommand
	}
}

func parseMove(m string) (blackjack.Move, bool) {
	switch m {
	case "hit":
		return blackjack.MoveHit, true
	case "stand":
		return blackjack.MoveStand, true
	case "doubleDown":
		return blackjack.MoveDoubleDown, true
	default:
		return "", false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
