package hub

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/blackjack-live/backend/internal/account"
	"github.com/blackjack-live/backend/internal/payout"
	"github.com/blackjack-live/backend/internal/room"
)

func testDeps() Deps {
	return Deps{
		Accounts: account.NewMemory(),
		Payouts:  payout.Noop{},
		Log:      zap.NewNop(),
	}
}

func TestHub_Ensure_Get_SamePointer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, testDeps())
	reply := make(chan *room.Room, 1)

	h.Inbox() <- EnsureRoom{Code: "brick7", Reply: reply}
	r1 := <-reply

	h.Inbox() <- GetRoom{Code: "brick7", Reply: reply}
	r2 := <-reply

	if r1 == nil || r2 == nil || r1 != r2 {
		t.Fatalf("expected same room pointer")
	}
}

func TestHub_EnsureIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, testDeps())
	reply := make(chan *room.Room, 1)

	h.Inbox() <- EnsureRoom{Code: "brick7", Reply: reply}
	r1 := <-reply
	h.Inbox() <- EnsureRoom{Code: "brick7", Reply: reply}
	r2 := <-reply

	if r1 != r2 {
		t.Fatalf("ensure must not replace a live room")
	}
}

func TestHub_GetUnknownRoomIsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, testDeps())
	reply := make(chan *room.Room, 1)

	h.Inbox() <- GetRoom{Code: "nope", Reply: reply}
	if r := <-reply; r != nil {
		t.Fatalf("expected nil for unknown room, got %v", r.ID())
	}
}

func TestHub_RemoveRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, testDeps())
	reply := make(chan *room.Room, 1)

	h.Inbox() <- EnsureRoom{Code: "brick7", Reply: reply}
	<-reply

	h.Inbox() <- RemoveRoom{Code: "brick7"}

	h.Inbox() <- GetRoom{Code: "brick7", Reply: reply}
	if r := <-reply; r != nil {
		t.Fatalf("room should be gone after removal")
	}
}
