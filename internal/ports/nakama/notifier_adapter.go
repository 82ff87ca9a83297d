package nakama

import (
	"encoding/json"

	"regenwormen/internal/domain"
	"regenwormen/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// snapshotSource supplies the current wire snapshot for state pushes.
type snapshotSource interface {
	Snapshot() *MatchSnapshot
}

// DispatcherNotifier pushes game events to connected clients through
// the match dispatcher. Nakama hands the dispatcher to each match
// callback, so the handler rebinds it before touching game state.
type DispatcherNotifier struct {
	logger     runtime.Logger
	source     snapshotSource
	dispatcher runtime.MatchDispatcher
}

// NewDispatcherNotifier builds an unbound notifier for one match.
func NewDispatcherNotifier(logger runtime.Logger, source snapshotSource) *DispatcherNotifier {
	return &DispatcherNotifier{logger: logger, source: source}
}

// Bind attaches the dispatcher of the current match callback.
func (n *DispatcherNotifier) Bind(dispatcher runtime.MatchDispatcher) {
	n.dispatcher = dispatcher
}

func (n *DispatcherNotifier) broadcast(opCode int64, payload interface{}) {
	if n.dispatcher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("notifier: failed to marshal payload for op %d: %v", opCode, err)
		return
	}
	if err := n.dispatcher.BroadcastMessage(opCode, data, nil, nil, true); err != nil {
		n.logger.Error("notifier: broadcast op %d failed: %v", opCode, err)
	}
}

// BroadcastState pushes the full authoritative match state.
func (n *DispatcherNotifier) BroadcastState(string) {
	n.broadcast(OpMatchState, n.source.Snapshot())
}

// BroadcastTimer announces the seconds left on the turn clock.
func (n *DispatcherNotifier) BroadcastTimer(_ string, playerName string, secondsLeft int) {
	n.broadcast(OpTurnTimer, map[string]interface{}{
		"playerName":  playerName,
		"secondsLeft": secondsLeft,
	})
}

// BroadcastDisconnectCountdown announces the seconds left before a
// disconnected player is removed.
func (n *DispatcherNotifier) BroadcastDisconnectCountdown(_ string, playerName string, secondsLeft int) {
	n.broadcast(OpDisconnectCountdown, map[string]interface{}{
		"playerName":  playerName,
		"secondsLeft": secondsLeft,
	})
}

// BroadcastSystemMessage pushes a human-readable notice.
func (n *DispatcherNotifier) BroadcastSystemMessage(_ string, text string) {
	n.broadcast(OpSystemMessage, map[string]interface{}{"text": text})
}

// BroadcastMatchEnded announces the final standings.
func (n *DispatcherNotifier) BroadcastMatchEnded(_ string, winnerID string, leaderboard []domain.LeaderboardEntry) {
	n.broadcast(OpMatchEnded, map[string]interface{}{
		"winnerId":    winnerID,
		"leaderboard": leaderboard,
	})
}

var _ ports.Notifier = (*DispatcherNotifier)(nil)
