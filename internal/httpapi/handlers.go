package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackjack-live/backend/internal/account"
	"github.com/blackjack-live/backend/internal/blackjack"
	"github.com/blackjack-live/backend/internal/hub"
	"github.com/blackjack-live/backend/internal/room"
)

// Balances is the read side of the account collaborator.
type Balances interface {
	GetBalance(ctx context.Context, playerID string) (int64, error)
}

// SnapshotLoader restores a room's session after a crash. May be nil.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, roomID string) (*blackjack.State, error)
}

type Handlers struct {
	Hub      *hub.Hub
	Balances Balances
	Snaps    SnapshotLoader
	Log      *zap.Logger
}

// newRoomCode shortens a v4 uuid the way room links are shared: the first
// dash-separated segment is plenty of entropy for a room id.
func newRoomCode() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	code := newRoomCode()

	reply := make(chan *room.Room, 1)
	h.Hub.Inbox() <- hub.EnsureRoom{Code: code, Reply: reply}
	if <-reply == nil {
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(struct {
		Code string `json:"code"`
	}{Code: code})
}

func (h *Handlers) RoomView(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	reply := make(chan *room.Room, 1)
	h.Hub.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	rm := <-reply

	if rm == nil && h.Snaps != nil {
		// Crash recovery: revive the room from its last snapshot.
		state, err := h.Snaps.LoadSnapshot(r.Context(), code)
		if err != nil {
			h.Log.Error("snapshot load failed", zap.String("room", code), zap.Error(err))
			http.Error(w, "failed to load room", http.StatusInternalServerError)
			return
		}
		if state != nil {
			h.Hub.Inbox() <- hub.EnsureRoom{Code: code, State: state, Reply: reply}
			rm = <-reply
		}
	}
	if rm == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	viewReply := make(chan room.View, 1)
	rm.Inbox() <- room.GetView{Reply: viewReply}
	view := <-viewReply

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func (h *Handlers) Balance(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player")

	b, err := h.Balances.GetBalance(r.Context(), playerID)
	if errors.Is(err, account.ErrUnknownAccount) {
		http.Error(w, "unknown player", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("balance lookup failed", zap.String("player", playerID), zap.Error(err))
		http.Error(w, "failed to fetch balance", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		PlayerID string `json:"player_id"`
		Balance  int64  `json:"balance"`
	}{PlayerID: playerID, Balance: b})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
