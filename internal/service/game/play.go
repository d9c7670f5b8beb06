package game

import appErr "landlord-service/pkg/errors"

// PlayType classifies a legal card submission.
type PlayType string

const (
	PlayTypeSolo             PlayType = "solo"
	PlayTypePair             PlayType = "pair"
	PlayTypeTriple           PlayType = "triple"
	PlayTypeTripleWithSingle PlayType = "triple_with_single"
	PlayTypeTripleWithPair   PlayType = "triple_with_pair"
	PlayTypeStraight         PlayType = "straight"
	PlayTypePairStraight     PlayType = "pair_straight"
	PlayTypeTripleStraight   PlayType = "triple_straight"
	PlayTypeBomb             PlayType = "bomb"
	PlayTypeRocket           PlayType = "rocket"

	// Declared for completeness; Classify never produces these shapes and
	// submissions matching them are rejected.
	PlayTypeAirplaneWithWings PlayType = "airplane_with_wings"
	PlayTypeQuadWithWings     PlayType = "quad_with_wings"
)

const (
	rocketValue   = 1000
	bombBaseValue = 100
)

// Play is a classified card submission. Value is the within-type comparison
// key; suit never matters.
type Play struct {
	Cards []Card   `json:"cards"`
	Type  PlayType `json:"type"`
	Value int      `json:"value"`
}

// Classify parses a card multiset into a typed play. Order of the input is
// irrelevant; the returned play holds a sorted copy. The precedence below is
// strict: the first shape that matches wins.
func Classify(cards []Card) (*Play, error) {
	n := len(cards)
	if n == 0 {
		return nil, appErr.ErrInvalidPlay
	}

	sorted := append([]Card(nil), cards...)
	SortCards(sorted)
	counts := rankCounts(sorted)

	if n == 2 && sorted[0].IsJoker() && sorted[1].IsJoker() {
		return &Play{Cards: sorted, Type: PlayTypeRocket, Value: rocketValue}, nil
	}
	if n == 4 && len(counts) == 1 {
		return &Play{Cards: sorted, Type: PlayTypeBomb, Value: bombBaseValue + int(sorted[0].Rank)}, nil
	}

	switch n {
	case 1:
		return &Play{Cards: sorted, Type: PlayTypeSolo, Value: int(sorted[0].Rank)}, nil
	case 2:
		if len(counts) == 1 {
			return &Play{Cards: sorted, Type: PlayTypePair, Value: int(sorted[0].Rank)}, nil
		}
	case 3:
		if len(counts) == 1 {
			return &Play{Cards: sorted, Type: PlayTypeTriple, Value: int(sorted[0].Rank)}, nil
		}
	case 4:
		if triple, ok := shapeWithTriple(counts, 1); ok {
			return &Play{Cards: sorted, Type: PlayTypeTripleWithSingle, Value: int(triple)}, nil
		}
	case 5:
		if triple, ok := shapeWithTriple(counts, 2); ok {
			return &Play{Cards: sorted, Type: PlayTypeTripleWithPair, Value: int(triple)}, nil
		}
	}

	if n >= 5 && isStraight(sorted, 1) {
		return &Play{Cards: sorted, Type: PlayTypeStraight, Value: int(sorted[0].Rank)}, nil
	}
	if n >= 6 && n%2 == 0 && isStraight(sorted, 2) {
		return &Play{Cards: sorted, Type: PlayTypePairStraight, Value: int(sorted[0].Rank)}, nil
	}
	if n >= 6 && n%3 == 0 && isStraight(sorted, 3) {
		return &Play{Cards: sorted, Type: PlayTypeTripleStraight, Value: int(sorted[0].Rank)}, nil
	}

	return nil, appErr.ErrInvalidPlay
}

// CanBeat reports whether play beats last. Rocket beats anything; a bomb
// beats everything except a rocket or an equal-or-higher bomb. Any other
// comparison requires matching type and card count and a strictly higher
// value.
func CanBeat(play, last *Play) bool {
	if last == nil {
		return true
	}
	if play.Type == PlayTypeRocket {
		return true
	}
	if last.Type == PlayTypeRocket {
		return false
	}
	if play.Type == PlayTypeBomb {
		if last.Type == PlayTypeBomb {
			return play.Value > last.Value
		}
		return true
	}
	if last.Type == PlayTypeBomb {
		return false
	}
	if play.Type != last.Type || len(play.Cards) != len(last.Cards) {
		return false
	}
	return play.Value > last.Value
}

func rankCounts(cards []Card) map[Rank]int {
	counts := make(map[Rank]int, len(cards))
	for _, c := range cards {
		counts[c.Rank]++
	}
	return counts
}

// shapeWithTriple matches {3, attachment} rank-count shapes. The attached
// card or pair never affects the comparison value, so only the triple's rank
// comes back. A joker attachment is fine.
func shapeWithTriple(counts map[Rank]int, attachment int) (Rank, bool) {
	if len(counts) != 2 {
		return 0, false
	}
	var triple Rank
	found := false
	for rank, n := range counts {
		switch n {
		case 3:
			triple = rank
			found = true
		case attachment:
		default:
			return 0, false
		}
	}
	return triple, found
}

// isStraight checks a sorted run of consecutive rank groups of groupSize.
// Jokers never participate and the run must stay strictly below 2, so an ace
// can top a straight but nothing wraps past it. Minimum lengths: five solo
// groups, three pair groups, two triple groups.
func isStraight(sorted []Card, groupSize int) bool {
	minGroups := map[int]int{1: 5, 2: 3, 3: 2}[groupSize]
	if minGroups == 0 || len(sorted)%groupSize != 0 {
		return false
	}
	groups := len(sorted) / groupSize
	if groups < minGroups {
		return false
	}
	var prev Rank
	for g := 0; g < groups; g++ {
		chunk := sorted[g*groupSize : (g+1)*groupSize]
		rank := chunk[0].Rank
		for _, c := range chunk {
			if c.IsJoker() || c.Rank != rank {
				return false
			}
		}
		if rank >= Rank2 {
			return false
		}
		if g > 0 && rank != prev+1 {
			return false
		}
		prev = rank
	}
	return true
}
