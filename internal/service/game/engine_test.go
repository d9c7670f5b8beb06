package game

import (
	"testing"

	appErr "landlord-service/pkg/errors"
)

func threePlayers() []*Player {
	return []*Player{
		{ID: 1, Name: "a"},
		{ID: 2, Name: "b"},
		{ID: 3, Name: "c"},
	}
}

func startedEngine(t *testing.T) (*Engine, []*Player) {
	t.Helper()
	e := NewEngine()
	players := threePlayers()
	if err := e.Start(players); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return e, players
}

// playingEngine sets up a deterministic mid-round position: player 1 is the
// landlord and it is their lead.
func playingEngine(t *testing.T) (*Engine, []*Player) {
	t.Helper()
	e, players := startedEngine(t)
	if err := e.BecomeLandlord(players[0]); err != nil {
		t.Fatalf("become landlord failed: %v", err)
	}
	return e, players
}

func TestStartRequiresThreePlayers(t *testing.T) {
	e := NewEngine()
	if err := e.Start([]*Player{{ID: 1}, {ID: 2}}); err != appErr.ErrNotEnoughPlayers {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}
	if err := e.Start([]*Player{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}); err != appErr.ErrNotEnoughPlayers {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}
}

func TestStartDealsAndOpensBidding(t *testing.T) {
	e, players := startedEngine(t)

	if e.Phase() != PhaseBidding {
		t.Fatalf("expected bidding, got %s", e.Phase())
	}
	if e.CurrentPlayerID() != players[0].ID {
		t.Fatalf("first seat should open bidding, current=%d", e.CurrentPlayerID())
	}
	if len(e.BottomCards()) != BottomSize {
		t.Fatalf("expected %d bottom cards, got %d", BottomSize, len(e.BottomCards()))
	}
	total := len(e.BottomCards())
	for _, p := range players {
		if len(p.Hand) != HandSize {
			t.Fatalf("player %d has %d cards", p.ID, len(p.Hand))
		}
		total += len(p.Hand)
	}
	if total != DeckSize {
		t.Fatalf("cards in flight = %d, want %d", total, DeckSize)
	}
}

func TestBecomeLandlordMergesBottom(t *testing.T) {
	e, players := startedEngine(t)

	if err := e.BecomeLandlord(players[1]); err != nil {
		t.Fatalf("become landlord failed: %v", err)
	}
	if e.Phase() != PhasePlaying {
		t.Fatalf("expected playing, got %s", e.Phase())
	}
	if e.LandlordID() != players[1].ID || e.CurrentPlayerID() != players[1].ID {
		t.Fatalf("landlord should lead: landlord=%d current=%d", e.LandlordID(), e.CurrentPlayerID())
	}
	if len(players[1].Hand) != HandSize+BottomSize {
		t.Fatalf("landlord has %d cards, want %d", len(players[1].Hand), HandSize+BottomSize)
	}
	if e.BottomCards() != nil {
		t.Fatal("bottom cards should be gone after the merge")
	}
	for i := 1; i < len(players[1].Hand); i++ {
		if players[1].Hand[i].Rank < players[1].Hand[i-1].Rank {
			t.Fatal("landlord hand not re-sorted after merge")
		}
	}

	if err := e.BecomeLandlord(players[2]); err != appErr.ErrWrongPhase {
		t.Fatalf("second claim should hit wrong phase, got %v", err)
	}
}

func TestPlayCardsOnlyWhilePlaying(t *testing.T) {
	e, players := startedEngine(t)
	if _, _, err := e.PlayCards(players[0], []Card{players[0].Hand[0]}, players); err != appErr.ErrWrongPhase {
		t.Fatalf("expected ErrWrongPhase during bidding, got %v", err)
	}
}

func TestPlayCardsRejectsWrongTurn(t *testing.T) {
	e, players := playingEngine(t)
	intruder := players[1]
	before := len(intruder.Hand)

	_, _, err := e.PlayCards(intruder, []Card{intruder.Hand[0]}, players)
	if err != appErr.ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if len(intruder.Hand) != before {
		t.Fatal("rejected play mutated the hand")
	}
	if e.LastPlay() != nil || e.CurrentPlayerID() != players[0].ID {
		t.Fatal("rejected play mutated the trick or turn")
	}
}

func TestPlayCardsRejectsCardsNotHeld(t *testing.T) {
	e, players := playingEngine(t)
	lead := players[0]

	// The landlord holds 20 of 54 cards, so some standard card is missing.
	var missing Card
	for rank := Rank3; rank <= Rank2 && missing == (Card{}); rank++ {
		for _, suit := range []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades} {
			c := NewCard(suit, rank)
			if !lead.Hand.Contains([]Card{c}) {
				missing = c
				break
			}
		}
	}

	if _, _, err := e.PlayCards(lead, []Card{missing}, players); err != appErr.ErrCardsNotInHand {
		t.Fatalf("expected ErrCardsNotInHand, got %v", err)
	}
}

func TestTrickFlowWithPasses(t *testing.T) {
	e, players := playingEngine(t)
	lead := players[0]

	if err := e.Pass(lead, players); err != appErr.ErrPassNotAllowed {
		t.Fatalf("opening a trick by passing must fail, got %v", err)
	}

	played := lead.Hand[0]
	if _, won, err := e.PlayCards(lead, []Card{played}, players); err != nil || won {
		t.Fatalf("lead solo failed: won=%v err=%v", won, err)
	}
	if e.LastPlay() == nil || e.PassCount() != 0 {
		t.Fatalf("trick not recorded: lastPlay=%v passCount=%d", e.LastPlay(), e.PassCount())
	}
	if e.CurrentPlayerID() != players[1].ID {
		t.Fatalf("turn should advance to seat 2, got %d", e.CurrentPlayerID())
	}

	if err := e.Pass(players[1], players); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	if e.PassCount() != 1 || e.LastPlay() == nil {
		t.Fatalf("after one pass: passCount=%d lastPlay=%v", e.PassCount(), e.LastPlay())
	}

	if err := e.Pass(players[2], players); err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if e.LastPlay() != nil || e.PassCount() != 0 {
		t.Fatalf("trick should clear after two passes: lastPlay=%v passCount=%d", e.LastPlay(), e.PassCount())
	}
	if e.CurrentPlayerID() != lead.ID {
		t.Fatalf("turn should return to the leader, got %d", e.CurrentPlayerID())
	}
}

func TestWinEndsRound(t *testing.T) {
	e, players := playingEngine(t)
	lead := players[0]

	// Burn the hand down to one card through repeated solo leads with both
	// opponents passing.
	for len(lead.Hand) > 1 {
		if _, won, err := e.PlayCards(lead, []Card{lead.Hand[len(lead.Hand)-1]}, players); err != nil || won {
			t.Fatalf("solo lead failed: won=%v err=%v", won, err)
		}
		if err := e.Pass(players[1], players); err != nil {
			t.Fatalf("pass failed: %v", err)
		}
		if err := e.Pass(players[2], players); err != nil {
			t.Fatalf("pass failed: %v", err)
		}
	}

	_, won, err := e.PlayCards(lead, []Card{lead.Hand[0]}, players)
	if err != nil {
		t.Fatalf("final play failed: %v", err)
	}
	if !won {
		t.Fatal("emptying the hand should win")
	}
	if e.Phase() != PhaseFinished {
		t.Fatalf("expected finished, got %s", e.Phase())
	}
	if e.CurrentPlayerID() != lead.ID {
		t.Fatal("turn must not advance past a win")
	}

	if _, _, err := e.PlayCards(players[1], []Card{players[1].Hand[0]}, players); err != appErr.ErrWrongPhase {
		t.Fatalf("play after finish should fail with wrong phase, got %v", err)
	}
}

func TestEngineRestartsAcrossRounds(t *testing.T) {
	e, players := playingEngine(t)

	if err := e.Start(players); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if e.Phase() != PhaseBidding || e.LandlordID() != 0 {
		t.Fatalf("restart should reset bidding: phase=%s landlord=%d", e.Phase(), e.LandlordID())
	}
	for _, p := range players {
		if len(p.Hand) != HandSize {
			t.Fatalf("player %d has %d cards after re-deal", p.ID, len(p.Hand))
		}
	}
}
