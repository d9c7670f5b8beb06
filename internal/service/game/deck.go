package game

import mrand "math/rand"

const (
	DeckSize      = 54
	HandSize      = 17
	BottomSize    = 3
	RequiredSeats = 3
)

var standardSuits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// newDeck builds the canonical 54-card sequence in deterministic order:
// four suits by rank, then the two jokers.
func newDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for rank := Rank3; rank <= Rank2; rank++ {
		for _, suit := range standardSuits {
			deck = append(deck, NewCard(suit, rank))
		}
	}
	deck = append(deck, NewJoker(JokerBlack), NewJoker(JokerRed))
	return deck
}

// shuffle permutes the deck in place. Uses the global math/rand source,
// seeded once at process start; cryptographic strength is not required.
func shuffle(deck []Card) {
	mrand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// deal reserves the first three cards as the bottom and hands out the
// remaining 51 round-robin in seating order, 17 per player. Hands come back
// sorted. Returns nil and leaves the players untouched unless exactly three
// are seated.
func deal(players []*Player, deck []Card) []Card {
	if len(players) != RequiredSeats || len(deck) != DeckSize {
		return nil
	}
	bottom := append([]Card(nil), deck[:BottomSize]...)
	for _, p := range players {
		p.Hand = make(Hand, 0, HandSize+BottomSize)
	}
	for i, c := range deck[BottomSize:] {
		p := players[i%len(players)]
		p.Hand = append(p.Hand, c)
	}
	for _, p := range players {
		p.Hand.Sort()
	}
	return bottom
}
