package errors

import "errors"

// Engine rejections. Every one of these means the action was refused and
// nothing was mutated.
var (
	ErrWrongPhase       = errors.New("action not allowed in current phase")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNotEnoughPlayers = errors.New("exactly three players required")
	ErrInvalidPlay      = errors.New("cards do not form a legal play")
	ErrCannotBeat       = errors.New("play does not beat the last play")
	ErrCardsNotInHand   = errors.New("cards not in hand")
	ErrPassNotAllowed   = errors.New("cannot pass when leading a trick")
	ErrLandlordTaken    = errors.New("landlord already assigned")
)

// Room errors.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrRoomNotInLobby    = errors.New("room is not in lobby")
	ErrNotInRoom         = errors.New("not a member of this room")
	ErrPlayersNotReady   = errors.New("not all players are ready")
	ErrRoomCodeExhausted = errors.New("could not allocate a room code")
)

// Account errors.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserBanned      = errors.New("user is banned")
	ErrInvalidNickname = errors.New("invalid nickname")
)
