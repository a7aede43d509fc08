package blackjack

// Hand is an ordered run of cards. Totals are recomputed from the cards on
// every call so a hand can never drift out of sync with what was dealt.
type Hand struct {
	Cards []Card `json:"cards"`
}

func (h *Hand) Add(c Card) {
	h.Cards = append(h.Cards, c)
}

func (h *Hand) Clear() {
	h.Cards = nil
}

func (h *Hand) Size() int {
	return len(h.Cards)
}

// Total sums face values with aces at 11, then demotes one soft ace at a
// time while the total is over 21.
func (h *Hand) Total() int {
	total := 0
	aces := 0
	for _, c := range h.Cards {
		total += c.Value()
		if c.Rank == Ace {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// SoftAces reports how many aces are still counted as 11.
func (h *Hand) SoftAces() int {
	total := 0
	aces := 0
	for _, c := range h.Cards {
		total += c.Value()
		if c.Rank == Ace {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return aces
}

// IsBlackjack reports a natural: exactly two cards totalling 21. A 21 built
// from three or more cards is not a blackjack.
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && h.Total() == 21
}
