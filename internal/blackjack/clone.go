package blackjack

// Clone deep-copies the session so a snapshot can be persisted while the
// owning actor keeps mutating the original.
func (s *State) Clone() *State {
	out := *s
	out.Deck = append(Deck(nil), s.Deck...)
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Hand.Cards = append([]Card(nil), p.Hand.Cards...)
		out.Players[i] = &cp
	}
	out.Dealer.Hand.Cards = append([]Card(nil), s.Dealer.Hand.Cards...)
	if s.Dealer.Hidden != nil {
		hidden := *s.Dealer.Hidden
		out.Dealer.Hidden = &hidden
	}
	return &out
}
