package domain

import "errors"

// Error kinds for rejected operations. Callers match with errors.Is;
// adapters map them to wire error codes.
var (
	// ErrNotFound reports an unknown game, player or victim id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState reports an operation in the wrong game or turn state.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotYourTurn reports an action by a player who does not hold the turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrIllegalMove reports a rule violation within an otherwise valid state.
	ErrIllegalMove = errors.New("illegal move")
	// ErrMatchNotJoinable reports a join on a full or already started match.
	ErrMatchNotJoinable = errors.New("match not joinable")
	// ErrMatchPaused reports a turn action while a player is disconnected.
	ErrMatchPaused = errors.New("match paused")
)
