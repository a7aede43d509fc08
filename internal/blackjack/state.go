package blackjack

import (
	"errors"
	"time"
)

var ErrBadAmount = errors.New("bet amount must be positive")
var ErrBetsClosed = errors.New("betting is closed")
var ErrWrongTurn = errors.New("not your turn")
var ErrStaleCommand = errors.New("stale command for an already-advanced turn")
var ErrRoundNotActive = errors.New("no active round")
var ErrUnsupportedMove = errors.New("unsupported move")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrDeckExhausted = errors.New("deck exhausted mid-round")

type Phase string

const (
	// PhaseWaiting: no open round, the next accepted bet opens the window.
	PhaseWaiting Phase = "waiting"
	// PhaseBetting: window open, bets accepted until the deadline.
	PhaseBetting Phase = "betting"
	// PhasePlaying: cards dealt, players act in fixed order.
	PhasePlaying Phase = "playing"
)

type Move string

const (
	MoveHit        Move = "hit"
	MoveStand      Move = "stand"
	MoveDoubleDown Move = "doubleDown"
)

// Player is a seat in the session. Entries are created on a player's first
// bet and reset, not destroyed, when the round concludes.
type Player struct {
	ID          string `json:"id"`
	Bet         int64  `json:"bet"`
	Hand        Hand   `json:"hand"`
	InRound     bool   `json:"in_round"`
	Blackjack   bool   `json:"blackjack"`
	Busted      bool   `json:"busted"`
	DoubledDown bool   `json:"doubled_down"`
	Moved       bool   `json:"moved"`
	Left        bool   `json:"left"`
}

// Dealer holds the house hand. Hidden is the second dealt card, concealed
// until the dealer's turn; it is also present in Hand for card accounting.
type Dealer struct {
	Hand   Hand  `json:"hand"`
	Hidden *Card `json:"hidden,omitempty"`
}

// State is the authoritative session for one room. It is owned by exactly
// one room actor; Apply is the only mutation path during a round.
type State struct {
	RoomID  string    `json:"room_id"`
	Phase   Phase     `json:"phase"`
	Deck    Deck      `json:"deck"`
	Players []*Player `json:"players"`
	Dealer  Dealer    `json:"dealer"`
	// Active indexes Players; len(Players) means the dealer is up.
	Active int `json:"active"`
	// TurnGen increments at every decision point. Moves and turn timers
	// carry the generation they were issued for; stale ones are rejected.
	TurnGen uint64 `json:"turn_gen"`
}

func NewState(roomID string) *State {
	deck := NewDeck()
	deck.Shuffle()
	return &State{
		RoomID: roomID,
		Phase:  PhaseWaiting,
		Deck:   deck,
	}
}

type CommandType string

const (
	CmdPlaceBet      CommandType = "PlaceBet"
	CmdSubmitMove    CommandType = "SubmitMove"
	CmdLeaveRound    CommandType = "LeaveRound"
	CmdWindowExpired CommandType = "WindowExpired"
	CmdTurnExpired   CommandType = "TurnExpired"
)

type Command struct {
	Type     CommandType
	PlayerID string
	Amount   int64
	Move     Move
	// TurnGen must echo the generation from the PlayerTurn event for
	// SubmitMove and TurnExpired.
	TurnGen uint64
}

type EventType string

const (
	EvtWindowOpened     EventType = "BettingWindowOpened"
	EvtPlayerBet        EventType = "PlayerBet"
	EvtRoundStarted     EventType = "RoundStarted"
	EvtPlayerTurn       EventType = "PlayerTurn"
	EvtPlayerHit        EventType = "PlayerHit"
	EvtPlayerStand      EventType = "PlayerStand"
	EvtPlayerDoubleDown EventType = "PlayerDoubleDown"
	EvtPlayerBusted     EventType = "PlayerBusted"
	EvtPlayerReached21  EventType = "PlayerReached21"
	EvtPlayerBlackjack  EventType = "PlayerBlackjack"
	EvtDealerRevealed   EventType = "DealerRevealed"
	EvtDealerHit        EventType = "DealerHit"
	EvtDealerBust       EventType = "DealerBust"
	EvtDealerStand      EventType = "DealerStand"
	EvtRoundConcluded   EventType = "RoundConcluded"
)

type Event struct {
	Type     EventType `json:"type"`
	PlayerID string    `json:"player_id,omitempty"`
	Card     *Card     `json:"card,omitempty"`
	Amount   int64     `json:"amount,omitempty"`
	Total    int       `json:"total,omitempty"`
	TurnGen  uint64    `json:"turn_gen,omitempty"`
	// Deadline is set on BettingWindowOpened by the room when it arms the
	// window timer; the engine itself never reads the clock.
	Deadline *time.Time `json:"deadline,omitempty"`
	Outcomes []Outcome  `json:"outcomes,omitempty"`
}

type OutcomeKind string

const (
	OutcomeLoss      OutcomeKind = "loss"
	OutcomeWin       OutcomeKind = "win"
	OutcomePush      OutcomeKind = "push"
	OutcomeBlackjack OutcomeKind = "blackjack"
)

// Outcome is one player's settlement for a round. Payout is the amount to
// credit back: 2x the stake on a win, 2.5x on a blackjack, 1x on a push,
// zero on a loss (the stake was debited when the bet was accepted).
type Outcome struct {
	PlayerID    string      `json:"player_id"`
	Kind        OutcomeKind `json:"kind"`
	Bet         int64       `json:"bet"`
	Payout      int64       `json:"payout"`
	PlayerTotal int         `json:"player_total"`
	DealerTotal int         `json:"dealer_total"`
}
