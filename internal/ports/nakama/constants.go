package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create an open match.
	RpcQuickMatch = "quick_match"

	// RpcCreateMatch is the Nakama RPC id clients call to create a named match.
	RpcCreateMatch = "create_match"

	// RpcMatchSnapshot is the Nakama RPC id clients call to fetch the last
	// persisted snapshot of a match.
	RpcMatchSnapshot = "match_snapshot"

	// MatchName is the authoritative match handler name registered with Nakama.
	MatchName = "regenwormen_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame int64 = 1
	OpStartTurn int64 = 2
	OpRoll      int64 = 3
	OpPick      int64 = 4
	OpClaim     int64 = 5
	OpSteal     int64 = 6

	// Server -> Client events
	OpMatchState          int64 = 101
	OpTurnOutcome         int64 = 102
	OpTurnEnded           int64 = 103
	OpTurnTimer           int64 = 104
	OpDisconnectCountdown int64 = 105
	OpSystemMessage       int64 = 106
	OpMatchEnded          int64 = 107

	// OpGameError is sent privately to the offending player.
	OpGameError int64 = 400
)
