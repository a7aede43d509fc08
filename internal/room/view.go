package room

import "github.com/blackjack-live/backend/internal/blackjack"

// View is the client-facing projection of a session: no deck contents and
// the dealer's hole card masked until revealed.
type View struct {
	RoomID   string          `json:"room_id"`
	Phase    blackjack.Phase `json:"phase"`
	Members  int             `json:"members"`
	Active   string          `json:"active,omitempty"`
	DeckSize int             `json:"deck_size"`
	Players  []SeatView      `json:"players"`
	Dealer   DealerView      `json:"dealer"`
}

type SeatView struct {
	ID          string           `json:"id"`
	Bet         int64            `json:"bet"`
	Cards       []blackjack.Card `json:"cards"`
	Total       int              `json:"total"`
	Blackjack   bool             `json:"blackjack,omitempty"`
	Busted      bool             `json:"busted,omitempty"`
	DoubledDown bool             `json:"doubled_down,omitempty"`
	InRound     bool             `json:"in_round"`
}

type DealerView struct {
	Cards  []blackjack.Card `json:"cards"`
	Total  int              `json:"total"`
	Hidden bool             `json:"hidden"`
}

func (r *Room) view() View {
	v := View{
		RoomID:   r.id,
		Phase:    r.state.Phase,
		Members:  len(r.members),
		Active:   r.state.ActivePlayerID(),
		DeckSize: len(r.state.Deck),
		Players:  make([]SeatView, 0, len(r.state.Players)),
	}
	for _, p := range r.state.Players {
		v.Players = append(v.Players, SeatView{
			ID:          p.ID,
			Bet:         p.Bet,
			Cards:       append([]blackjack.Card(nil), p.Hand.Cards...),
			Total:       p.Hand.Total(),
			Blackjack:   p.Blackjack,
			Busted:      p.Busted,
			DoubledDown: p.DoubledDown,
			InRound:     p.InRound,
		})
	}

	dealer := r.state.Dealer
	if dealer.Hidden != nil && len(dealer.Hand.Cards) > 0 {
		// Only the up-card is visible while the hole card is concealed.
		up := blackjack.Hand{Cards: dealer.Hand.Cards[:1]}
		v.Dealer = DealerView{
			Cards:  append([]blackjack.Card(nil), up.Cards...),
			Total:  up.Total(),
			Hidden: true,
		}
	} else {
		v.Dealer = DealerView{
			Cards: append([]blackjack.Card(nil), dealer.Hand.Cards...),
			Total: dealer.Hand.Total(),
		}
	}
	return v
}
