package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"regenwormen/internal/domain"
	"regenwormen/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	snapshotCollection = "match_snapshots"
	resultsCollection  = "game_results"
)

// storageIO is the slice of runtime.NakamaModule the adapter needs.
type storageIO interface {
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
}

// StorageMatchStore persists snapshots and results in Nakama storage.
type StorageMatchStore struct {
	nk storageIO
}

// NewStorageMatchStore builds a store over the Nakama storage engine.
func NewStorageMatchStore(nk storageIO) *StorageMatchStore {
	return &StorageMatchStore{nk: nk}
}

// SaveSnapshot upserts the system-owned snapshot record for the match.
func (s *StorageMatchStore) SaveSnapshot(ctx context.Context, matchID string, snapshot []byte) error {
	_, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      snapshotCollection,
			Key:             matchID,
			Value:           string(snapshot),
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot for match %s: %w", matchID, err)
	}
	return nil
}

// LoadSnapshot reads the snapshot record, or a NotFound error when the
// match has never been persisted.
func (s *StorageMatchStore) LoadSnapshot(ctx context.Context, matchID string) ([]byte, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: snapshotCollection, Key: matchID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot for match %s: %w", matchID, err)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: no snapshot for match %s", domain.ErrNotFound, matchID)
	}
	return []byte(objects[0].GetValue()), nil
}

// SaveResults writes one owner-readable result record per player.
func (s *StorageMatchStore) SaveResults(ctx context.Context, matchID string, leaderboard []domain.LeaderboardEntry) error {
	writes := make([]*runtime.StorageWrite, 0, len(leaderboard))
	for _, entry := range leaderboard {
		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal result for %s: %w", entry.PlayerID, err)
		}
		writes = append(writes, &runtime.StorageWrite{
			Collection:      resultsCollection,
			Key:             matchID,
			UserID:          entry.PlayerID,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		})
	}
	if len(writes) == 0 {
		return nil
	}
	if _, err := s.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to save results for match %s: %w", matchID, err)
	}
	return nil
}

var _ ports.MatchStore = (*StorageMatchStore)(nil)
