package blackjack

import "math/rand"

// Deck is an ordered pile of cards, dealt by popping from the tail. A deck
// is exclusively owned by one session and mutated in place.
type Deck []Card

// NewDeck returns the 52 unique cards in canonical suit-then-rank order.
func NewDeck() Deck {
	d := make(Deck, 0, len(Suits)*len(Ranks))
	for _, s := range Suits {
		for _, r := range Ranks {
			d = append(d, Card{Rank: r, Suit: s})
		}
	}
	return d
}

// Shuffle performs an in-place Fisher-Yates permutation.
func (d Deck) Shuffle() {
	for i := len(d) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

// Draw removes and returns the top (tail) card. ok is false when the deck
// is exhausted.
func (d *Deck) Draw() (Card, bool) {
	if len(*d) == 0 {
		return Card{}, false
	}
	c := (*d)[len(*d)-1]
	*d = (*d)[:len(*d)-1]
	return c, true
}
