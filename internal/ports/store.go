package ports

import (
	"context"

	"regenwormen/internal/domain"
)

// MatchStore persists match state across loop ticks and the final
// results at game end. Snapshots are opaque to the store.
type MatchStore interface {
	SaveSnapshot(ctx context.Context, matchID string, snapshot []byte) error
	LoadSnapshot(ctx context.Context, matchID string) ([]byte, error)
	SaveResults(ctx context.Context, matchID string, leaderboard []domain.LeaderboardEntry) error
}
