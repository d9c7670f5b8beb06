package game

import (
	"fmt"
	"sort"
)

// Suit of a standard card. Jokers carry SuitJoker and a rank above Rank2.
type Suit string

const (
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
	SuitSpades   Suit = "S"
	SuitJoker    Suit = "X"
)

// Rank carries the total order used for every comparison in the game:
// 3 < 4 < ... < 10 < J < Q < K < A < 2 < black joker < red joker.
type Rank int

const (
	Rank3 Rank = iota + 3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJack
	RankQueen
	RankKing
	RankAce
	Rank2
	RankBlackJoker
	RankRedJoker
)

// JokerColor distinguishes the two jokers.
type JokerColor string

const (
	JokerBlack JokerColor = "black"
	JokerRed   JokerColor = "red"
)

// Card is an immutable card identity. Standard cards are built with NewCard,
// jokers with NewJoker; equality is plain value equality.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

func NewJoker(color JokerColor) Card {
	if color == JokerRed {
		return Card{Suit: SuitJoker, Rank: RankRedJoker}
	}
	return Card{Suit: SuitJoker, Rank: RankBlackJoker}
}

func (c Card) IsJoker() bool {
	return c.Suit == SuitJoker
}

func (c Card) String() string {
	switch c.Rank {
	case RankRedJoker:
		return "RJ"
	case RankBlackJoker:
		return "BJ"
	case RankAce:
		return "A" + string(c.Suit)
	case RankKing:
		return "K" + string(c.Suit)
	case RankQueen:
		return "Q" + string(c.Suit)
	case RankJack:
		return "J" + string(c.Suit)
	case Rank2:
		return "2" + string(c.Suit)
	default:
		return fmt.Sprintf("%d%s", int(c.Rank), c.Suit)
	}
}

// SortCards orders cards ascending by rank. Suit does not participate in
// ordering; ties keep their relative order.
func SortCards(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Rank < cards[j].Rank
	})
}

// Hand is a player's multiset of cards, kept sorted ascending by rank.
type Hand []Card

func (h *Hand) Add(cards ...Card) {
	*h = append(*h, cards...)
	h.Sort()
}

func (h Hand) Sort() {
	SortCards(h)
}

// Remove takes each given card out of the hand by identity. Cards that are
// not present are skipped silently.
func (h *Hand) Remove(cards ...Card) {
	for _, c := range cards {
		for i, have := range *h {
			if have == c {
				*h = append((*h)[:i], (*h)[i+1:]...)
				break
			}
		}
	}
}

// Contains reports whether the hand holds the whole multiset, counting
// duplicates.
func (h Hand) Contains(cards []Card) bool {
	need := make(map[Card]int, len(cards))
	for _, c := range cards {
		need[c]++
	}
	for _, c := range h {
		if need[c] > 0 {
			need[c]--
		}
	}
	for _, n := range need {
		if n > 0 {
			return false
		}
	}
	return true
}

// PlayerStatus within a room.
type PlayerStatus string

const (
	StatusNotReady     PlayerStatus = "not_ready"
	StatusReady        PlayerStatus = "ready"
	StatusDisconnected PlayerStatus = "disconnected"
)

// Player is a seat at the table. Entities persist across rounds within a
// room; the hand is rebuilt at each round start.
type Player struct {
	ID     int64
	Name   string
	Status PlayerStatus
	Hand   Hand
	Score  int64
}
