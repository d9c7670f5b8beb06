package room

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"landlord-service/internal/service/game"
	appErr "landlord-service/pkg/errors"
	"landlord-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status of a room. Rooms cycle lobby -> playing -> lobby per round.
type Status string

const (
	StatusLobby   Status = "lobby"
	StatusPlaying Status = "playing"
)

const (
	defaultBaseScore = 100
	chatBacklog      = 50
)

type ChatMessage struct {
	ID        string `json:"id"`
	UserID    int64  `json:"userId,string"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// CardView is a card as one specific recipient is allowed to see it. Cards
// the recipient is not entitled to carry only the faceDown marker.
type CardView struct {
	Suit     game.Suit `json:"suit,omitempty"`
	Rank     game.Rank `json:"rank,omitempty"`
	FaceDown bool      `json:"faceDown,omitempty"`
}

type PlayerView struct {
	ID        int64             `json:"id,string"`
	Name      string            `json:"name"`
	Status    game.PlayerStatus `json:"status"`
	Hand      []CardView        `json:"hand"`
	HandCount int               `json:"handCount"`
	Score     int64             `json:"score"`
}

type WinnerInfo struct {
	PlayerID    int64 `json:"playerId,string"`
	LandlordWon bool  `json:"landlordWon"`
}

// State is the per-recipient projection of a room. It is recomputed for
// every subscriber on every broadcast; two clients never share one State.
type State struct {
	Code            string        `json:"code"`
	Status          Status        `json:"status"`
	Phase           game.Phase    `json:"phase"`
	CurrentPlayerID int64         `json:"currentPlayerId,string"`
	LandlordID      int64         `json:"landlordId,string"`
	LastPlay        *game.Play    `json:"lastPlay,omitempty"`
	LastPlayBy      int64         `json:"lastPlayBy,string"`
	PassCount       int           `json:"passCount"`
	BottomCards     []CardView    `json:"bottomCards,omitempty"`
	Countdown       int           `json:"countdown"`
	AllowedActions  []string      `json:"allowedActions"`
	Players         []PlayerView  `json:"players"`
	Chat            []ChatMessage `json:"chat"`
	Winner          *WinnerInfo   `json:"winner,omitempty"`
}

// RoundResult is handed to the settlement layer when a round finishes.
type RoundResult struct {
	RoomCode    string
	LandlordID  int64
	WinnerID    int64
	LandlordWon bool
	Deltas      map[int64]int64
}

type Config struct {
	TurnSeconds int
	BaseScore   int64
}

func (c *Config) fillDefaults() {
	if c.BaseScore == 0 {
		c.BaseScore = defaultBaseScore
	}
}

// Runtime is the single writer for one room. Every mutation happens under
// mu; the engine itself is lock-free and relies on this serialization.
type Runtime struct {
	code      string
	status    Status
	engine    *game.Engine
	seats     []*game.Player
	byID      map[int64]*game.Player
	chat      []ChatMessage
	winner    *WinnerInfo
	createdAt time.Time

	subscribers map[int64]chan OutgoingMessage
	seq         int64

	timer        *time.Timer
	turnDeadline time.Time

	cfg        Config
	onRoundEnd func(RoundResult)

	mu sync.Mutex
}

func NewRuntime(code string, cfg Config, onRoundEnd func(RoundResult)) *Runtime {
	cfg.fillDefaults()
	return &Runtime{
		code:        code,
		status:      StatusLobby,
		engine:      game.NewEngine(),
		byID:        make(map[int64]*game.Player),
		subscribers: make(map[int64]chan OutgoingMessage),
		createdAt:   time.Now(),
		cfg:         cfg,
		onRoundEnd:  onRoundEnd,
	}
}

func (rt *Runtime) Code() string { return rt.code }

func (rt *Runtime) CreatedAt() time.Time { return rt.createdAt }

// Join seats a player. Seating order is join order and fixes the turn order
// for every round played in this room. Joining a room you already sit in is
// a no-op so a dropped client can re-enter through the same flow.
func (rt *Runtime) Join(userID int64, name string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, ok := rt.byID[userID]; ok {
		return nil
	}
	if rt.status != StatusLobby {
		return appErr.ErrRoomNotInLobby
	}
	if len(rt.seats) >= game.RequiredSeats {
		return appErr.ErrRoomFull
	}

	p := &game.Player{ID: userID, Name: name, Status: game.StatusNotReady}
	rt.seats = append(rt.seats, p)
	rt.byID[userID] = p
	rt.broadcastStateLocked()
	return nil
}

// Leave gives the seat up. In the lobby the seat frees immediately; during a
// round the player is only marked disconnected and the seat is reclaimed at
// round end, so the running game keeps its three hands.
func (rt *Runtime) Leave(userID int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p, ok := rt.byID[userID]
	if !ok {
		return appErr.ErrNotInRoom
	}
	if ch, ok := rt.subscribers[userID]; ok {
		delete(rt.subscribers, userID)
		close(ch)
	}
	if rt.status == StatusLobby {
		delete(rt.byID, userID)
		kept := rt.seats[:0]
		for _, seat := range rt.seats {
			if seat.ID != userID {
				kept = append(kept, seat)
			}
		}
		rt.seats = kept
	} else {
		p.Status = game.StatusDisconnected
	}
	rt.broadcastStateLocked()
	return nil
}

func (rt *Runtime) IsMember(userID int64) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.byID[userID]
	return ok
}

func (rt *Runtime) PlayerCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.seats)
}

func (rt *Runtime) Status() Status {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.status
}

// AllDisconnected reports an abandoned room: empty, or every seat dropped.
// The registry garbage-collects on it.
func (rt *Runtime) AllDisconnected() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for _, p := range rt.seats {
		if p.Status != game.StatusDisconnected {
			return false
		}
	}
	return true
}

func (rt *Runtime) SubscriberCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.subscribers)
}

// Subscribe attaches a member's outbound channel and pushes the current
// state. A returning player comes back as not-ready in the lobby or ready
// mid-round; their seat was never vacated.
func (rt *Runtime) Subscribe(userID int64) (chan OutgoingMessage, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p, ok := rt.byID[userID]
	if !ok {
		return nil, appErr.ErrNotInRoom
	}
	if p.Status == game.StatusDisconnected {
		if rt.status == StatusPlaying {
			p.Status = game.StatusReady
		} else {
			p.Status = game.StatusNotReady
		}
	}

	ch := make(chan OutgoingMessage, 8)
	rt.subscribers[userID] = ch
	rt.pushStateLocked(userID)
	rt.broadcastStateLocked()
	return ch, nil
}

// Unsubscribe drops the channel and marks the seat disconnected. The turn
// clock keeps running; a stalled turn is resolved by the timeout policy, not
// by the disconnect itself.
func (rt *Runtime) Unsubscribe(userID int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if ch, ok := rt.subscribers[userID]; ok {
		delete(rt.subscribers, userID)
		close(ch)
	}
	if p, ok := rt.byID[userID]; ok {
		p.Status = game.StatusDisconnected
	}
	rt.broadcastStateLocked()
}

type playPayload struct {
	Cards []game.Card `json:"cards"`
}

type chatPayload struct {
	Content string `json:"content"`
}

// HandleAction applies one client action. Rejections come back as plain
// errors with no state change; the transport layer maps them to notices.
func (rt *Runtime) HandleAction(userID int64, action string, data json.RawMessage) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p, ok := rt.byID[userID]
	if !ok {
		return appErr.ErrNotInRoom
	}

	switch action {
	case "ready":
		return rt.handleReadyLocked(p)
	case "claim_landlord":
		return rt.handleClaimLocked(p)
	case "play":
		var payload playPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return appErr.ErrInvalidPlay
		}
		return rt.handlePlayLocked(p, payload.Cards)
	case "pass":
		return rt.handlePassLocked(p)
	case "chat":
		var payload chatPayload
		if err := json.Unmarshal(data, &payload); err != nil || payload.Content == "" {
			return fmt.Errorf("empty chat message")
		}
		rt.appendChatLocked(p, payload.Content)
		rt.broadcastStateLocked()
		return nil
	case "rejoin":
		rt.pushStateLocked(userID)
		return nil
	case "ping":
		rt.pushMessageLocked(userID, OutgoingMessage{Type: "pong", Seq: rt.nextSeqLocked()})
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}

func (rt *Runtime) handleReadyLocked(p *game.Player) error {
	if rt.status != StatusLobby {
		return appErr.ErrRoomNotInLobby
	}
	if p.Status == game.StatusReady {
		return nil
	}
	p.Status = game.StatusReady

	if err := rt.tryStartLocked(); err != nil {
		// Not everyone is here yet; just show the new ready flag.
		rt.broadcastStateLocked()
		return nil
	}
	rt.broadcastStateLocked()
	return nil
}

// TryStart begins a round: lobby status, three seats, everyone ready.
func (rt *Runtime) TryStart() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if err := rt.tryStartLocked(); err != nil {
		return err
	}
	rt.broadcastStateLocked()
	return nil
}

func (rt *Runtime) tryStartLocked() error {
	if rt.status != StatusLobby {
		return appErr.ErrRoomNotInLobby
	}
	if len(rt.seats) != game.RequiredSeats {
		return appErr.ErrNotEnoughPlayers
	}
	for _, p := range rt.seats {
		if p.Status != game.StatusReady {
			return appErr.ErrPlayersNotReady
		}
	}

	if err := rt.engine.Start(rt.seats); err != nil {
		return err
	}
	rt.status = StatusPlaying
	rt.winner = nil
	rt.cancelTimerLocked()

	logger.Log.Info("round started",
		zap.String("room", rt.code),
		zap.Int64("firstSeat", rt.engine.CurrentPlayerID()),
	)
	return nil
}

func (rt *Runtime) handleClaimLocked(p *game.Player) error {
	if rt.status != StatusPlaying {
		return appErr.ErrWrongPhase
	}
	if err := rt.engine.BecomeLandlord(p); err != nil {
		return err
	}
	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()

	logger.Log.Info("landlord claimed",
		zap.String("room", rt.code),
		zap.Int64("userID", p.ID),
	)
	return nil
}

func (rt *Runtime) handlePlayLocked(p *game.Player, cards []game.Card) error {
	if rt.status != StatusPlaying {
		return appErr.ErrWrongPhase
	}
	play, won, err := rt.engine.PlayCards(p, cards, rt.seats)
	if err != nil {
		return err
	}

	logger.Log.Debug("cards played",
		zap.String("room", rt.code),
		zap.Int64("userID", p.ID),
		zap.String("type", string(play.Type)),
		zap.Int("value", play.Value),
	)

	if won {
		rt.finishRoundLocked(p)
		return nil
	}
	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
	return nil
}

func (rt *Runtime) handlePassLocked(p *game.Player) error {
	if rt.status != StatusPlaying {
		return appErr.ErrWrongPhase
	}
	if err := rt.engine.Pass(p, rt.seats); err != nil {
		return err
	}
	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
	return nil
}

// finishRoundLocked settles the round in memory, reports it, then returns
// the room to the lobby. The finished state (with the winner) is broadcast
// before the reset so clients see the result.
func (rt *Runtime) finishRoundLocked(winner *game.Player) {
	rt.cancelTimerLocked()

	landlordWon := winner.ID == rt.engine.LandlordID()
	result := RoundResult{
		RoomCode:    rt.code,
		LandlordID:  rt.engine.LandlordID(),
		WinnerID:    winner.ID,
		LandlordWon: landlordWon,
		Deltas:      make(map[int64]int64, len(rt.seats)),
	}
	base := rt.cfg.BaseScore
	for _, p := range rt.seats {
		var delta int64
		switch {
		case p.ID == result.LandlordID && landlordWon:
			delta = 2 * base
		case p.ID == result.LandlordID:
			delta = -2 * base
		case landlordWon:
			delta = -base
		default:
			delta = base
		}
		result.Deltas[p.ID] = delta
		p.Score += delta
	}
	rt.winner = &WinnerInfo{PlayerID: winner.ID, LandlordWon: landlordWon}

	logger.Log.Info("round finished",
		zap.String("room", rt.code),
		zap.Int64("winner", winner.ID),
		zap.Bool("landlordWon", landlordWon),
	)

	rt.broadcastStateLocked()
	if rt.onRoundEnd != nil {
		go rt.onRoundEnd(result)
	}
	rt.endRoundLocked()
	rt.broadcastStateLocked()
}

// EndRound forces the room back to the lobby, e.g. when a host tears a
// stuck round down. Regular rounds end through finishRoundLocked.
func (rt *Runtime) EndRound() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.endRoundLocked()
	rt.broadcastStateLocked()
}

func (rt *Runtime) endRoundLocked() {
	rt.cancelTimerLocked()
	rt.status = StatusLobby

	kept := rt.seats[:0]
	for _, p := range rt.seats {
		if p.Status == game.StatusDisconnected {
			delete(rt.byID, p.ID)
			continue
		}
		p.Status = game.StatusNotReady
		p.Hand = nil
		kept = append(kept, p)
	}
	rt.seats = kept
}

func (rt *Runtime) appendChatLocked(p *game.Player, content string) {
	rt.chat = append(rt.chat, ChatMessage{
		ID:        uuid.NewString(),
		UserID:    p.ID,
		Name:      p.Name,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	})
	if len(rt.chat) > chatBacklog {
		rt.chat = rt.chat[len(rt.chat)-chatBacklog:]
	}
}

func (rt *Runtime) pushStateLocked(userID int64) {
	rt.pushMessageLocked(userID, OutgoingMessage{
		Type: "state",
		Seq:  rt.nextSeqLocked(),
		Data: rt.exportStateLocked(userID),
	})
}

func (rt *Runtime) broadcastStateLocked() {
	seq := rt.nextSeqLocked()
	for uid, ch := range rt.subscribers {
		msg := OutgoingMessage{
			Type: "state",
			Seq:  seq,
			Data: rt.exportStateLocked(uid),
		}
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("subscriber channel full",
				zap.Int64("userID", uid),
				zap.String("room", rt.code),
			)
		}
	}
}

func (rt *Runtime) pushMessageLocked(userID int64, msg OutgoingMessage) {
	if ch, ok := rt.subscribers[userID]; ok {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("subscriber channel full",
				zap.Int64("userID", userID),
				zap.String("room", rt.code),
			)
		}
	}
}

func (rt *Runtime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}

// ExportState builds the projection one recipient is entitled to. Exposed
// for the REST room summary; internal broadcasts use the locked variant.
func (rt *Runtime) ExportState(userID int64) State {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.exportStateLocked(userID)
}

func (rt *Runtime) exportStateLocked(userID int64) State {
	players := make([]PlayerView, 0, len(rt.seats))
	for _, p := range rt.seats {
		view := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Status:    p.Status,
			HandCount: len(p.Hand),
			Score:     p.Score,
			Hand:      make([]CardView, 0, len(p.Hand)),
		}
		if p.ID == userID {
			for _, c := range p.Hand {
				view.Hand = append(view.Hand, CardView{Suit: c.Suit, Rank: c.Rank})
			}
		} else {
			// Same-length run of face-down placeholders; the count is
			// public, the identities are not.
			for range p.Hand {
				view.Hand = append(view.Hand, CardView{FaceDown: true})
			}
		}
		players = append(players, view)
	}

	var bottom []CardView
	for range rt.engine.BottomCards() {
		bottom = append(bottom, CardView{FaceDown: true})
	}

	return State{
		Code:            rt.code,
		Status:          rt.status,
		Phase:           rt.engine.Phase(),
		CurrentPlayerID: rt.engine.CurrentPlayerID(),
		LandlordID:      rt.engine.LandlordID(),
		LastPlay:        rt.engine.LastPlay(),
		LastPlayBy:      rt.engine.LastPlayBy(),
		PassCount:       rt.engine.PassCount(),
		BottomCards:     bottom,
		Countdown:       rt.countdownSecondsLocked(),
		AllowedActions:  rt.allowedActionsLocked(userID),
		Players:         players,
		Chat:            append([]ChatMessage(nil), rt.chat...),
		Winner:          rt.winner,
	}
}

func (rt *Runtime) allowedActionsLocked(userID int64) []string {
	p, ok := rt.byID[userID]
	if !ok {
		return nil
	}

	if rt.status == StatusLobby {
		if p.Status == game.StatusReady {
			return nil
		}
		return []string{"ready"}
	}

	switch rt.engine.Phase() {
	case game.PhaseBidding:
		return []string{"claim_landlord"}
	case game.PhasePlaying:
		if rt.engine.CurrentPlayerID() != userID {
			return nil
		}
		if rt.engine.LastPlay() == nil {
			return []string{"play"}
		}
		return []string{"play", "pass"}
	default:
		return nil
	}
}

func (rt *Runtime) resetTurnTimerLocked() {
	rt.cancelTimerLocked()
	if rt.cfg.TurnSeconds <= 0 {
		return
	}
	d := time.Duration(rt.cfg.TurnSeconds) * time.Second
	rt.turnDeadline = time.Now().Add(d)
	rt.timer = time.AfterFunc(d, rt.onTurnTimeout)
}

// onTurnTimeout is the host-layer auto move: pass on an open trick, lead the
// lowest solo otherwise. Keyed by the current player id, so it is just
// another caller as far as the engine is concerned.
func (rt *Runtime) onTurnTimeout() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.status != StatusPlaying || rt.engine.Phase() != game.PhasePlaying {
		return
	}
	p, ok := rt.byID[rt.engine.CurrentPlayerID()]
	if !ok {
		return
	}

	logger.Log.Warn("turn timeout",
		zap.String("room", rt.code),
		zap.Int64("userID", p.ID),
	)

	if rt.engine.LastPlay() != nil {
		if err := rt.engine.Pass(p, rt.seats); err != nil {
			return
		}
		rt.resetTurnTimerLocked()
		rt.broadcastStateLocked()
		return
	}

	if len(p.Hand) == 0 {
		return
	}
	_, won, err := rt.engine.PlayCards(p, []game.Card{p.Hand[0]}, rt.seats)
	if err != nil {
		return
	}
	if won {
		rt.finishRoundLocked(p)
		return
	}
	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
}

func (rt *Runtime) cancelTimerLocked() {
	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
	rt.turnDeadline = time.Time{}
}

func (rt *Runtime) countdownSecondsLocked() int {
	if rt.turnDeadline.IsZero() {
		return 0
	}
	diff := time.Until(rt.turnDeadline)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Second)
}
