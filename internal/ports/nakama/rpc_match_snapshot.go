package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchSnapshotRequest is the payload for the match-snapshot RPC.
type MatchSnapshotRequest struct {
	MatchID string `json:"match_id"`
}

// rpcMatchSnapshot returns the last persisted snapshot of a match, so a
// client can render a table it is not currently connected to.
func rpcMatchSnapshot(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req MatchSnapshotRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", fmt.Errorf("malformed match snapshot payload: %w", err)
	}
	if req.MatchID == "" {
		return "", fmt.Errorf("match_id is required")
	}

	data, err := NewStorageMatchStore(nk).LoadSnapshot(ctx, req.MatchID)
	if err != nil {
		logger.Warn("rpcMatchSnapshot: %v", err)
		return "", err
	}
	return string(data), nil
}
