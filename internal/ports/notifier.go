package ports

import "regenwormen/internal/domain"

// Notifier is the outbound broadcast boundary. Implementations are
// fire-and-forget: a failed delivery is logged by the adapter and never
// surfaces as an error to game logic.
type Notifier interface {
	// BroadcastState pushes the full authoritative match state to every
	// connected player.
	BroadcastState(matchID string)
	// BroadcastTimer announces the seconds left on the acting player's
	// turn clock.
	BroadcastTimer(matchID, playerName string, secondsLeft int)
	// BroadcastDisconnectCountdown announces the seconds left before a
	// disconnected player is removed from the match.
	BroadcastDisconnectCountdown(matchID, playerName string, secondsLeft int)
	// BroadcastSystemMessage pushes a human-readable notice.
	BroadcastSystemMessage(matchID, text string)
	// BroadcastMatchEnded announces the final standings.
	BroadcastMatchEnded(matchID, winnerID string, leaderboard []domain.LeaderboardEntry)
}
