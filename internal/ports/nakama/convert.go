package nakama

import (
	"errors"

	"regenwormen/internal/domain"
)

// PlayerView is the wire representation of one player.
type PlayerView struct {
	UserID       string `json:"userId"`
	DisplayName  string `json:"displayName"`
	Connected    bool   `json:"connected"`
	BonusPending bool   `json:"bonusPending"`
	// BonusValue is 0 for a pending or busted bonus.
	BonusValue int   `json:"bonusValue,omitempty"`
	TileValues []int `json:"tileValues,omitempty"`
	TopTile    int   `json:"topTile,omitempty"`
	Points     int   `json:"points"`
	IsCurrent  bool  `json:"isCurrent"`
	HasTurn    bool  `json:"hasTurn"`
}

// MatchSnapshot is the full authoritative state pushed on every change
// and persisted between loop ticks.
type MatchSnapshot struct {
	MatchID         string                    `json:"matchId"`
	Name            string                    `json:"name"`
	State           domain.GameState          `json:"state"`
	Round           int                       `json:"round"`
	MaxPlayers      int                       `json:"maxPlayers"`
	CurrentPlayerID string                    `json:"currentPlayerId,omitempty"`
	PotTiles        []int                     `json:"potTiles,omitempty"`
	Players         []PlayerView              `json:"players"`
	Leaderboard     []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// toSnapshot projects the domain game onto the wire shape.
func toSnapshot(matchID string, g *domain.Game) *MatchSnapshot {
	snap := &MatchSnapshot{
		MatchID:    matchID,
		Name:       g.Name(),
		State:      g.State(),
		Round:      g.Round(),
		MaxPlayers: g.MaxPlayers(),
	}
	if cur := g.CurrentPlayer(); cur != nil {
		snap.CurrentPlayerID = cur.ID()
	}
	if pot := g.Pot(); pot != nil {
		for _, t := range pot.AvailableTiles() {
			snap.PotTiles = append(snap.PotTiles, t.Value())
		}
	}
	for _, p := range g.Players() {
		snap.Players = append(snap.Players, toPlayerView(g, p))
	}
	if g.State() == domain.Ended {
		if lb, err := g.Leaderboard(); err == nil {
			snap.Leaderboard = lb
		}
	}
	return snap
}

func toPlayerView(g *domain.Game, p *domain.Player) PlayerView {
	view := PlayerView{
		UserID:       p.ID(),
		DisplayName:  p.Name(),
		Connected:    p.Status() == domain.Connected,
		BonusPending: p.Bonus().State == domain.BonusPending,
		Points:       p.Points(),
		HasTurn:      p.Turn() != nil,
	}
	if p.Bonus().State == domain.BonusSet {
		view.BonusValue = p.Bonus().Value
	}
	for _, t := range p.Tiles() {
		view.TileValues = append(view.TileValues, t.Value())
	}
	if top := p.TopTile(); top != nil {
		view.TopTile = top.Value()
	}
	if cur := g.CurrentPlayer(); cur != nil && cur.ID() == p.ID() {
		view.IsCurrent = true
	}
	return view
}

// errorCode maps a domain error kind to the wire error code.
func errorCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return 404
	case errors.Is(err, domain.ErrNotYourTurn):
		return 403
	case errors.Is(err, domain.ErrInvalidState):
		return 409
	case errors.Is(err, domain.ErrMatchNotJoinable):
		return 410
	case errors.Is(err, domain.ErrMatchPaused):
		return 423
	default:
		return 400
	}
}
