package game

import appErr "landlord-service/pkg/errors"

// Phase of a round.
type Phase string

const (
	PhaseBidding  Phase = "bidding"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Engine is the turn state machine for one table. It is reused across
// rounds: Start re-deals and returns to bidding. The engine itself holds no
// lock; the room runtime serializes every call, which matches the
// one-writer-per-room discipline the rest of the service relies on.
//
// Every mutating method is all-or-nothing: a rejection leaves hands, the
// last play and the turn pointer untouched.
type Engine struct {
	phase      Phase
	currentID  int64
	landlordID int64
	lastPlay   *Play
	lastPlayBy int64
	passCount  int
	bottom     []Card
}

func NewEngine() *Engine {
	return &Engine{phase: PhaseFinished}
}

func (e *Engine) Phase() Phase           { return e.phase }
func (e *Engine) CurrentPlayerID() int64 { return e.currentID }
func (e *Engine) LandlordID() int64      { return e.landlordID }
func (e *Engine) LastPlay() *Play        { return e.lastPlay }
func (e *Engine) LastPlayBy() int64      { return e.lastPlayBy }
func (e *Engine) PassCount() int         { return e.passCount }

// BottomCards returns the three cards set aside at the deal, or nil once
// they have been merged into the landlord's hand.
func (e *Engine) BottomCards() []Card { return e.bottom }

// Start deals a fresh round. Requires exactly three seated players; the
// first seat opens the bidding.
func (e *Engine) Start(players []*Player) error {
	if len(players) != RequiredSeats {
		return appErr.ErrNotEnoughPlayers
	}

	deck := newDeck()
	shuffle(deck)
	e.bottom = deal(players, deck)

	e.phase = PhaseBidding
	e.currentID = players[0].ID
	e.landlordID = 0
	e.lastPlay = nil
	e.lastPlayBy = 0
	e.passCount = 0
	return nil
}

// BecomeLandlord assigns the landlord during bidding. The bottom cards merge
// into the claimant's hand and play opens with them. Any seated player may
// claim; the first claim wins because it ends the bidding phase.
func (e *Engine) BecomeLandlord(p *Player) error {
	if e.phase != PhaseBidding {
		return appErr.ErrWrongPhase
	}
	if e.landlordID != 0 {
		return appErr.ErrLandlordTaken
	}

	p.Hand.Add(e.bottom...)
	e.bottom = nil
	e.landlordID = p.ID
	e.currentID = p.ID
	e.phase = PhasePlaying
	e.lastPlay = nil
	e.lastPlayBy = 0
	e.passCount = 0
	return nil
}

// PlayCards submits a card set for the current player. On acceptance the
// cards leave the hand, the trick updates and the turn advances; an emptied
// hand finishes the round instead, with no further turn advance. The
// returned bool reports the win.
func (e *Engine) PlayCards(p *Player, cards []Card, players []*Player) (*Play, bool, error) {
	if e.phase != PhasePlaying {
		return nil, false, appErr.ErrWrongPhase
	}
	if p.ID != e.currentID {
		return nil, false, appErr.ErrNotYourTurn
	}

	play, err := Classify(cards)
	if err != nil {
		return nil, false, err
	}
	if !p.Hand.Contains(cards) {
		return nil, false, appErr.ErrCardsNotInHand
	}
	if e.lastPlay != nil && !CanBeat(play, e.lastPlay) {
		return nil, false, appErr.ErrCannotBeat
	}

	p.Hand.Remove(cards...)
	e.lastPlay = play
	e.lastPlayBy = p.ID
	e.passCount = 0

	if len(p.Hand) == 0 {
		e.phase = PhaseFinished
		return play, true, nil
	}
	e.advanceTurn(players)
	return play, false, nil
}

// Pass declines to beat the open trick. A trick cannot be opened by passing.
// The second consecutive pass clears the trick; the turn advances either
// way.
func (e *Engine) Pass(p *Player, players []*Player) error {
	if e.phase != PhasePlaying {
		return appErr.ErrWrongPhase
	}
	if p.ID != e.currentID {
		return appErr.ErrNotYourTurn
	}
	if e.lastPlay == nil {
		return appErr.ErrPassNotAllowed
	}

	e.passCount++
	if e.passCount == RequiredSeats-1 {
		e.lastPlay = nil
		e.lastPlayBy = 0
		e.passCount = 0
	}
	e.advanceTurn(players)
	return nil
}

func (e *Engine) advanceTurn(players []*Player) {
	for i, p := range players {
		if p.ID == e.currentID {
			e.currentID = players[(i+1)%len(players)].ID
			return
		}
	}
}
