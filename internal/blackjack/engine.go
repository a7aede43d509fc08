package blackjack

// Apply runs one command against the session and returns the events it
// produced. Commands are validated before any mutation: on error the state
// is unchanged, except for ErrDeckExhausted, which is fatal — the caller
// must abort the round (refund bets, Reset) when it sees it.
//
// Apply is not safe for concurrent use. The owning room actor is the
// serialization boundary.
func Apply(s *State, cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdPlaceBet:
		return s.placeBet(cmd)
	case CmdSubmitMove:
		return s.submitMove(cmd)
	case CmdLeaveRound:
		return s.leaveRound(cmd)
	case CmdWindowExpired:
		return s.windowExpired()
	case CmdTurnExpired:
		return s.turnExpired(cmd)
	default:
		return nil, ErrUnsupportedCommand
	}
}

// BetsOpen reports whether a bet would currently be accepted.
func (s *State) BetsOpen() bool {
	return s.Phase == PhaseWaiting || s.Phase == PhaseBetting
}

// Bettors counts seats with a live stake in the open window.
func (s *State) Bettors() int {
	n := 0
	for _, p := range s.Players {
		if p.Bet > 0 && !p.Left {
			n++
		}
	}
	return n
}

// CurrentBet returns the recorded stake for a player, zero if absent.
func (s *State) CurrentBet(playerID string) int64 {
	if p := s.player(playerID); p != nil {
		return p.Bet
	}
	return 0
}

// ActivePlayerID returns the player whose turn it is, or "" when no turn
// is in progress.
func (s *State) ActivePlayerID() string {
	if s.Phase != PhasePlaying || s.Active >= len(s.Players) {
		return ""
	}
	return s.Players[s.Active].ID
}

// Refunds lists every live stake; used with Reset to abort a round after a
// fatal invariant violation.
func (s *State) Refunds() []Outcome {
	var refunds []Outcome
	for _, p := range s.Players {
		if p.Bet > 0 {
			refunds = append(refunds, Outcome{PlayerID: p.ID, Kind: OutcomePush, Bet: p.Bet, Payout: p.Bet})
		}
	}
	return refunds
}

func (s *State) player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *State) placeBet(cmd Command) ([]Event, error) {
	if cmd.Amount <= 0 {
		return nil, ErrBadAmount
	}
	if !s.BetsOpen() {
		return nil, ErrBetsClosed
	}

	var events []Event
	if s.Phase == PhaseWaiting {
		// First accepted bet of the round opens the window. The window is
		// fixed: later bets never re-arm the deadline.
		s.Phase = PhaseBetting
		events = append(events, Event{Type: EvtWindowOpened})
	}

	p := s.player(cmd.PlayerID)
	if p == nil {
		p = &Player{ID: cmd.PlayerID}
		s.Players = append(s.Players, p)
	}
	p.Bet += cmd.Amount

	events = append(events, Event{Type: EvtPlayerBet, PlayerID: cmd.PlayerID, Amount: cmd.Amount})
	return events, nil
}

func (s *State) windowExpired() ([]Event, error) {
	if s.Phase != PhaseBetting {
		return nil, ErrStaleCommand
	}
	if s.Bettors() == 0 {
		// Everyone who bet left again before the deadline. No round.
		s.Phase = PhaseWaiting
		return nil, nil
	}
	return s.deal()
}

// deal starts the round: two cards per bettor in seat order, two to the
// dealer with the second concealed. Naturals are flagged here and settled
// with everyone else at round end.
func (s *State) deal() ([]Event, error) {
	events := []Event{{Type: EvtRoundStarted}}

	for _, p := range s.Players {
		if p.Bet <= 0 || p.Left {
			continue
		}
		p.InRound = true
		for i := 0; i < 2; i++ {
			c, ok := s.Deck.Draw()
			if !ok {
				return events, ErrDeckExhausted
			}
			p.Hand.Add(c)
		}
		if p.Hand.IsBlackjack() {
			p.Blackjack = true
			events = append(events, Event{Type: EvtPlayerBlackjack, PlayerID: p.ID, Total: 21})
		}
	}

	for i := 0; i < 2; i++ {
		c, ok := s.Deck.Draw()
		if !ok {
			return events, ErrDeckExhausted
		}
		s.Dealer.Hand.Add(c)
		if i == 1 {
			hidden := c
			s.Dealer.Hidden = &hidden
		}
	}

	s.Phase = PhasePlaying
	s.Active = -1
	return s.advance(events)
}

func (s *State) submitMove(cmd Command) ([]Event, error) {
	if s.Phase != PhasePlaying || s.Active >= len(s.Players) {
		return nil, ErrRoundNotActive
	}
	p := s.Players[s.Active]
	if cmd.PlayerID != p.ID {
		return nil, ErrWrongTurn
	}
	if cmd.TurnGen != s.TurnGen {
		return nil, ErrStaleCommand
	}

	switch cmd.Move {
	case MoveHit:
		c, ok := s.Deck.Draw()
		if !ok {
			return nil, ErrDeckExhausted
		}
		p.Hand.Add(c)
		total := p.Hand.Total()
		events := []Event{{Type: EvtPlayerHit, PlayerID: p.ID, Card: &c, Total: total}}
		switch {
		case total > 21:
			p.Busted = true
			events = append(events, Event{Type: EvtPlayerBusted, PlayerID: p.ID, Total: total})
			return s.advance(events)
		case total == 21:
			// 21 cannot improve; the turn ends without further input.
			events = append(events, Event{Type: EvtPlayerReached21, PlayerID: p.ID, Total: total})
			return s.advance(events)
		default:
			s.TurnGen++
			events = append(events, Event{Type: EvtPlayerTurn, PlayerID: p.ID, TurnGen: s.TurnGen})
			return events, nil
		}

	case MoveStand:
		return s.advance([]Event{{Type: EvtPlayerStand, PlayerID: p.ID, Total: p.Hand.Total()}})

	case MoveDoubleDown:
		// The extra stake was debited by the caller before the command was
		// accepted into the session.
		p.Bet *= 2
		p.DoubledDown = true
		c, ok := s.Deck.Draw()
		if !ok {
			return nil, ErrDeckExhausted
		}
		p.Hand.Add(c)
		total := p.Hand.Total()
		events := []Event{{Type: EvtPlayerDoubleDown, PlayerID: p.ID, Card: &c, Amount: p.Bet, Total: total}}
		if total > 21 {
			p.Busted = true
			events = append(events, Event{Type: EvtPlayerBusted, PlayerID: p.ID, Total: total})
		}
		return s.advance(events)

	default:
		return nil, ErrUnsupportedMove
	}
}

func (s *State) turnExpired(cmd Command) ([]Event, error) {
	if s.Phase != PhasePlaying || s.Active >= len(s.Players) {
		return nil, ErrStaleCommand
	}
	if cmd.TurnGen != s.TurnGen {
		return nil, ErrStaleCommand
	}
	// No move arrived in time: default to stand.
	p := s.Players[s.Active]
	return s.advance([]Event{{Type: EvtPlayerStand, PlayerID: p.ID, Total: p.Hand.Total()}})
}

func (s *State) leaveRound(cmd Command) ([]Event, error) {
	p := s.player(cmd.PlayerID)
	if p == nil {
		return nil, nil
	}

	switch s.Phase {
	case PhaseWaiting, PhaseBetting:
		// The caller refunds any stake; the seat is simply withdrawn.
		for i, q := range s.Players {
			if q == p {
				s.Players = append(s.Players[:i], s.Players[i+1:]...)
				break
			}
		}
		return nil, nil

	case PhasePlaying:
		p.Left = true
		if s.Active < len(s.Players) && s.Players[s.Active] == p {
			// Mid-turn departure plays out like a decision timeout.
			return s.advance([]Event{{Type: EvtPlayerStand, PlayerID: p.ID, Total: p.Hand.Total()}})
		}
		return nil, nil

	default:
		return nil, nil
	}
}

// advance marks the current turn done and hands control to the next seat
// still owed a decision, or to the dealer once every seat has acted.
func (s *State) advance(events []Event) ([]Event, error) {
	if s.Active >= 0 && s.Active < len(s.Players) {
		s.Players[s.Active].Moved = true
	}
	for s.Active++; s.Active < len(s.Players); s.Active++ {
		p := s.Players[s.Active]
		if !p.InRound || p.Blackjack || p.Left {
			// Naturals have nothing to decide; leavers stand implicitly.
			p.Moved = true
			continue
		}
		s.TurnGen++
		events = append(events, Event{Type: EvtPlayerTurn, PlayerID: p.ID, TurnGen: s.TurnGen})
		return events, nil
	}
	return s.dealerTurn(events)
}

// dealerTurn reveals the hole card and draws to 17. Deterministic given
// deck order; no external input.
func (s *State) dealerTurn(events []Event) ([]Event, error) {
	total := s.Dealer.Hand.Total()
	events = append(events, Event{Type: EvtDealerRevealed, Card: s.Dealer.Hidden, Total: total})
	s.Dealer.Hidden = nil

	for total < 17 {
		c, ok := s.Deck.Draw()
		if !ok {
			return events, ErrDeckExhausted
		}
		s.Dealer.Hand.Add(c)
		total = s.Dealer.Hand.Total()
		events = append(events, Event{Type: EvtDealerHit, Card: &c, Total: total})
		if total > 21 {
			events = append(events, Event{Type: EvtDealerBust, Total: total})
			break
		}
	}
	if total <= 21 {
		events = append(events, Event{Type: EvtDealerStand, Total: total})
	}

	outcomes := s.settle()
	events = append(events, Event{Type: EvtRoundConcluded, Outcomes: outcomes})
	s.reset()
	return events, nil
}

// settle classifies every seat exactly once, in seat order.
func (s *State) settle() []Outcome {
	dealerTotal := s.Dealer.Hand.Total()
	dealerBlackjack := s.Dealer.Hand.IsBlackjack()

	var outcomes []Outcome
	for _, p := range s.Players {
		if !p.InRound {
			continue
		}
		o := Outcome{
			PlayerID:    p.ID,
			Bet:         p.Bet,
			PlayerTotal: p.Hand.Total(),
			DealerTotal: dealerTotal,
		}
		switch {
		case p.Busted:
			o.Kind = OutcomeLoss
		case p.Blackjack && !dealerBlackjack:
			o.Kind = OutcomeBlackjack
			o.Payout = p.Bet + p.Bet*3/2
		case p.Blackjack && dealerBlackjack:
			// Both naturals: push, the standard rule.
			o.Kind = OutcomePush
			o.Payout = p.Bet
		case dealerTotal > 21:
			o.Kind = OutcomeWin
			o.Payout = p.Bet * 2
		case o.PlayerTotal > dealerTotal:
			o.Kind = OutcomeWin
			o.Payout = p.Bet * 2
		case o.PlayerTotal == dealerTotal:
			o.Kind = OutcomePush
			o.Payout = p.Bet
		default:
			o.Kind = OutcomeLoss
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// Reset clears hands, bets and flags, installs a freshly shuffled deck and
// returns the session to awaiting-bets. Seats persist across rounds;
// players who left are dropped.
func (s *State) Reset() {
	s.reset()
}

func (s *State) reset() {
	kept := s.Players[:0]
	for _, p := range s.Players {
		if p.Left {
			continue
		}
		p.Bet = 0
		p.Hand.Clear()
		p.InRound = false
		p.Blackjack = false
		p.Busted = false
		p.DoubledDown = false
		p.Moved = false
		kept = append(kept, p)
	}
	s.Players = kept
	s.Dealer.Hand.Clear()
	s.Dealer.Hidden = nil
	deck := NewDeck()
	deck.Shuffle()
	s.Deck = deck
	s.Phase = PhaseWaiting
	s.Active = 0
	s.TurnGen++ // invalidate any timer still in flight
}
