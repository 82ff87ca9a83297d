package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"regenwormen/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting
// an open match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// CreateMatchRequest is the payload for the create-match RPC.
type CreateMatchRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	// Find any lobby of our game with an open seat.
	query := "+label.game:regenwormen +label.phase:lobby +label.open:>=1"

	limit := 10
	authoritative := true
	minSize := 0
	maxSize := domain.MaxPlayers

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcQuickMatch: MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		resp := QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false}
		b, _ := json.Marshal(resp)
		return string(b), nil
	}

	// Create a new match; seating happens in MatchJoin (server-authoritative).
	matchID, err := nk.MatchCreate(ctx, MatchName, map[string]interface{}{})
	if err != nil {
		logger.Error("rpcQuickMatch: MatchCreate error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}

func rpcCreateMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req := CreateMatchRequest{Name: "regenwormen", MaxPlayers: domain.MaxPlayers}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", fmt.Errorf("malformed create match payload: %w", err)
		}
	}
	if req.MaxPlayers < domain.MinPlayers || req.MaxPlayers > domain.MaxPlayers {
		return "", fmt.Errorf("max players must be %d-%d", domain.MinPlayers, domain.MaxPlayers)
	}

	matchID, err := nk.MatchCreate(ctx, MatchName, map[string]interface{}{
		"name":        req.Name,
		"max_players": req.MaxPlayers,
	})
	if err != nil {
		logger.Error("rpcCreateMatch: MatchCreate error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
