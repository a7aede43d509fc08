package blackjack

import "testing"

func TestNewDeck_Has52UniqueCards(t *testing.T) {
	d := NewDeck()
	if len(d) != 52 {
		t.Fatalf("want 52 cards, got %d", len(d))
	}
	seen := map[Card]bool{}
	for _, c := range d {
		if seen[c] {
			t.Fatalf("duplicate card %v", c)
		}
		seen[c] = true
	}
}

func TestShuffle_IsPermutationOfCanonicalDeck(t *testing.T) {
	d := NewDeck()
	d.Shuffle()
	if len(d) != 52 {
		t.Fatalf("shuffle changed deck size: %d", len(d))
	}
	want := map[Card]int{}
	for _, c := range NewDeck() {
		want[c]++
	}
	for _, c := range d {
		want[c]--
	}
	for c, n := range want {
		if n != 0 {
			t.Fatalf("card %v count off by %d after shuffle", c, n)
		}
	}
}

func TestDraw_PopsFromTail(t *testing.T) {
	d := Deck{
		{Rank: Two, Suit: Hearts},
		{Rank: King, Suit: Spades},
	}
	c, ok := d.Draw()
	if !ok || c.Rank != King {
		t.Fatalf("want King off the tail, got %v ok=%v", c, ok)
	}
	c, ok = d.Draw()
	if !ok || c.Rank != Two {
		t.Fatalf("want Two next, got %v ok=%v", c, ok)
	}
	if _, ok := d.Draw(); ok {
		t.Fatalf("expected exhausted deck")
	}
}
