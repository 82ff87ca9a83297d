package domain

import (
	"fmt"
	"sort"
	"strings"
)

// GameState is the lifecycle stage of a match. Transitions are one-way:
// PRE_GAME -> PLAYING -> ENDED, with an explicit Reset back to a fresh
// PRE_GAME lobby after a finished match is torn down.
type GameState string

const (
	// PreGame is the joinable lobby state before start.
	PreGame GameState = "pre_game"
	// Playing is the active state from start until the pot runs out.
	Playing GameState = "playing"
	// Ended is the terminal state with a computed leaderboard.
	Ended GameState = "ended"
)

// Player count bounds per match.
const (
	MinPlayers = 2
	MaxPlayers = 8
)

// RoundZeroMinScore is the minimum banked score for a round-zero turn
// to count as a bonus instead of a forced bust.
const RoundZeroMinScore = MinTileValue

const maxGameNameLength = 16

// Game is the authoritative state of one match: players in fixed turn
// order, the tiles pot, the round counter and the end-of-game
// leaderboard. All mutation goes through its methods; the caller is
// responsible for serializing access per match.
type Game struct {
	id          string
	name        string
	maxPlayers  int
	players     []*Player
	turnIndex   int
	round       int
	state       GameState
	pot         *TilesPot
	leaderboard []LeaderboardEntry
}

// NewGame builds an empty PRE_GAME match.
func NewGame(id, name string, maxPlayers int) (*Game, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing game id", ErrIllegalMove)
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxGameNameLength {
		return nil, fmt.Errorf("%w: game name must be 1-%d characters", ErrIllegalMove, maxGameNameLength)
	}
	if maxPlayers < MinPlayers || maxPlayers > MaxPlayers {
		return nil, fmt.Errorf("%w: max players must be %d-%d", ErrIllegalMove, MinPlayers, MaxPlayers)
	}
	return &Game{id: id, name: name, maxPlayers: maxPlayers, state: PreGame}, nil
}

// ID returns the match id.
func (g *Game) ID() string { return g.id }

// Name returns the match display name.
func (g *Game) Name() string { return g.name }

// MaxPlayers returns the configured player cap.
func (g *Game) MaxPlayers() int { return g.maxPlayers }

// State returns the lifecycle state.
func (g *Game) State() GameState { return g.state }

// Round returns the round counter: 0 during the seeding round, 1 and
// up during normal play.
func (g *Game) Round() int { return g.round }

// TurnIndex returns the current turn index. It is only meaningful
// while PLAYING in round 1 or later.
func (g *Game) TurnIndex() int { return g.turnIndex }

// Pot returns the tiles pot, or nil before start.
func (g *Game) Pot() *TilesPot { return g.pot }

// Players returns the ordered player list.
func (g *Game) Players() []*Player { return g.players }

// Player returns the player with the given id, or a NotFound error.
func (g *Game) Player(id string) (*Player, error) {
	for _, p := range g.players {
		if p.id == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: player %s not in game %s", ErrNotFound, id, g.id)
}

// CurrentPlayer returns the player holding the turn, or nil outside
// normal rounds.
func (g *Game) CurrentPlayer() *Player {
	if g.state != Playing || g.round < 1 || len(g.players) == 0 {
		return nil
	}
	return g.players[g.turnIndex]
}

// AnyDisconnected reports whether any player is currently disconnected.
func (g *Game) AnyDisconnected() bool {
	for _, p := range g.players {
		if p.status == Disconnected {
			return true
		}
	}
	return false
}

// AddPlayer joins a player to a PRE_GAME match with a free slot.
func (g *Game) AddPlayer(p *Player) error {
	if g.state != PreGame {
		return fmt.Errorf("%w: game %s already started", ErrMatchNotJoinable, g.id)
	}
	if len(g.players) >= g.maxPlayers {
		return fmt.Errorf("%w: game %s is full", ErrMatchNotJoinable, g.id)
	}
	for _, existing := range g.players {
		if existing.id == p.id {
			return fmt.Errorf("%w: player %s already joined", ErrIllegalMove, p.id)
		}
	}
	g.players = append(g.players, p)
	return nil
}

// Start moves the match to PLAYING: the pot is allocated and round
// zero begins with every bonus pending.
func (g *Game) Start() error {
	if g.state != PreGame {
		return fmt.Errorf("%w: game %s is not in pre-game", ErrInvalidState, g.id)
	}
	if len(g.players) < MinPlayers {
		return fmt.Errorf("%w: need at least %d players", ErrInvalidState, MinPlayers)
	}
	g.pot = NewTilesPot()
	g.round = 0
	g.turnIndex = 0
	g.state = Playing
	return nil
}

// ResolveBonus records a player's round-zero outcome. When the last
// pending bonus resolves, turn order is fixed (bonus descending, id
// ascending on ties) and the round advances to 1. Returns whether the
// order was fixed by this call.
func (g *Game) ResolveBonus(playerID string, b Bonus) (bool, error) {
	if g.state != Playing || g.round != 0 {
		return false, fmt.Errorf("%w: not in round zero", ErrInvalidState)
	}
	if b.State == BonusPending {
		return false, fmt.Errorf("%w: cannot resolve a bonus to pending", ErrIllegalMove)
	}
	p, err := g.Player(playerID)
	if err != nil {
		return false, err
	}
	if err := p.ResolveBonus(b); err != nil {
		return false, err
	}
	if g.anyBonusPending() {
		return false, nil
	}
	g.fixTurnOrder()
	return true, nil
}

func (g *Game) anyBonusPending() bool {
	for _, p := range g.players {
		if p.bonus.State == BonusPending {
			return true
		}
	}
	return false
}

func (g *Game) fixTurnOrder() {
	sort.SliceStable(g.players, func(i, j int) bool {
		bi, bj := g.players[i].bonus.OrderValue(), g.players[j].bonus.OrderValue()
		if bi != bj {
			return bi > bj
		}
		return g.players[i].id < g.players[j].id
	})
	g.turnIndex = 0
	g.round = 1
}

// AdvanceTurn passes the turn to the next player, wrapping to index 0
// and incrementing the round at the wrap.
func (g *Game) AdvanceTurn() {
	if g.state != Playing || len(g.players) == 0 {
		return
	}
	g.turnIndex++
	if g.turnIndex >= len(g.players) {
		g.turnIndex = 0
		g.round++
	}
}

// ClaimFromPot hands the acting player the highest available tile at
// or below score. No affordable tile is an illegal move, never a bust.
func (g *Game) ClaimFromPot(p *Player, score int) (*Tile, error) {
	tile := g.pot.ClaimableAtOrBelow(score)
	if tile == nil {
		return nil, fmt.Errorf("%w: no pot tile claimable at score %d", ErrIllegalMove, score)
	}
	if err := tile.Take(p.id); err != nil {
		return nil, err
	}
	if err := p.AddTile(tile); err != nil {
		return nil, err
	}
	return tile, nil
}

// StealTopTile transfers the victim's top tile to the acting player.
// The acting score must match the tile value exactly.
func (g *Game) StealTopTile(p *Player, victimID string, score int) (*Tile, error) {
	victim, err := g.Player(victimID)
	if err != nil {
		return nil, err
	}
	if victim.id == p.id {
		return nil, fmt.Errorf("%w: cannot steal from yourself", ErrIllegalMove)
	}
	top := victim.TopTile()
	if top == nil {
		return nil, fmt.Errorf("%w: player %s owns no tiles", ErrIllegalMove, victimID)
	}
	if top.Value() != score {
		return nil, fmt.Errorf("%w: score %d does not match top tile %d", ErrIllegalMove, score, top.Value())
	}
	if _, err := victim.RemoveTopTile(); err != nil {
		return nil, err
	}
	if err := top.Take(p.id); err != nil {
		// Re-own by the victim so no tile is left dangling.
		victim.tiles = append(victim.tiles, top)
		return nil, err
	}
	if err := p.AddTile(top); err != nil {
		return nil, err
	}
	return top, nil
}

// ResolveBust applies the bust punishment: the player's top tile (if
// any) goes back to the pot and the pot's highest available tile is
// flipped out of play. Returns the forfeited and flipped tiles.
func (g *Game) ResolveBust(p *Player) (forfeited, flipped *Tile) {
	if top := p.TopTile(); top != nil {
		top, _ = p.RemoveTopTile()
		top.ReturnToPot()
		forfeited = top
	}
	flipped = g.pot.FlipHighestAvailable()
	return forfeited, flipped
}

// RemovePlayer drops a player from the match. Owned tiles unwind back
// to the pot. If the removed player held the turn, the turn passes to
// whoever now occupies that index, renormalized when the removed slot
// was the last one. A PLAYING match with fewer than two players left
// ends immediately.
func (g *Game) RemovePlayer(id string) (ended bool, err error) {
	idx := -1
	for i, p := range g.players {
		if p.id == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, fmt.Errorf("%w: player %s not in game %s", ErrNotFound, id, g.id)
	}

	leaving := g.players[idx]
	for leaving.TopTile() != nil {
		t, _ := leaving.RemoveTopTile()
		t.ReturnToPot()
	}
	leaving.EndTurn()

	g.players = append(g.players[:idx], g.players[idx+1:]...)
	if idx < g.turnIndex {
		g.turnIndex--
	}
	if g.turnIndex >= len(g.players) {
		g.turnIndex = 0
	}

	if g.state == Playing && len(g.players) < MinPlayers {
		g.End()
		return true, nil
	}
	// The departed player may have held the last pending bonus; round
	// zero must still close so the remaining players can play.
	if g.state == Playing && g.round == 0 && !g.anyBonusPending() {
		g.fixTurnOrder()
	}
	return false, nil
}

// End finishes the match and computes the leaderboard. Calling it on
// an already ended match returns the existing leaderboard.
func (g *Game) End() []LeaderboardEntry {
	if g.state == Ended {
		return g.leaderboard
	}
	g.state = Ended
	g.leaderboard = computeLeaderboard(g.players)
	return g.leaderboard
}

// Leaderboard returns the final standings, or a state error before end.
func (g *Game) Leaderboard() ([]LeaderboardEntry, error) {
	if g.state != Ended {
		return nil, fmt.Errorf("%w: game %s has not ended", ErrInvalidState, g.id)
	}
	return g.leaderboard, nil
}

// Reset tears the match down to a fresh PRE_GAME lobby. Players are
// cleared so a late reconnect cannot resurrect the finished match.
func (g *Game) Reset() {
	g.players = nil
	g.pot = nil
	g.leaderboard = nil
	g.round = 0
	g.turnIndex = 0
	g.state = PreGame
}
