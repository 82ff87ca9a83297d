package domain

import (
	"fmt"
	"strings"
)

// ConnectionStatus tracks whether a player's client is reachable.
type ConnectionStatus string

const (
	// Connected means the player can act normally.
	Connected ConnectionStatus = "connected"
	// Disconnected pauses the match until reconnect or removal.
	Disconnected ConnectionStatus = "disconnected"
)

// BonusState is the resolution state of a player's round-zero bonus.
type BonusState int

const (
	// BonusPending means round zero has not finished for this player.
	BonusPending BonusState = iota
	// BonusBust means round zero ended without a bonus.
	BonusBust
	// BonusSet means round zero banked a bonus tile value.
	BonusSet
)

// Bonus is the round-zero result used to seed turn order. The tile
// whose value equals a set bonus scores double at the end of the game.
type Bonus struct {
	State BonusState
	Value int
}

// OrderValue returns the value used when sorting turn order, 0 for a
// bust or pending bonus.
func (b Bonus) OrderValue() int {
	if b.State == BonusSet {
		return b.Value
	}
	return 0
}

const maxPlayerNameLength = 16

// Player is one participant in a game. Owned tiles form a stack: the
// top tile is the most recently claimed one and the only tile exposed
// to steals and bust forfeits.
type Player struct {
	id     string
	name   string
	tiles  []*Tile
	turn   *TurnEngine
	bonus  Bonus
	status ConnectionStatus
}

// NewPlayer builds a connected player with a pending bonus.
func NewPlayer(id, name string) (*Player, error) {
	p := &Player{id: id, status: Connected}
	if id == "" {
		return nil, fmt.Errorf("%w: missing player id", ErrIllegalMove)
	}
	if err := p.SetName(name); err != nil {
		return nil, err
	}
	return p, nil
}

// ID returns the immutable player id.
func (p *Player) ID() string { return p.id }

// Name returns the display name.
func (p *Player) Name() string { return p.name }

// SetName updates the display name (1..16 characters after trimming).
func (p *Player) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxPlayerNameLength {
		return fmt.Errorf("%w: player name must be 1-%d characters", ErrIllegalMove, maxPlayerNameLength)
	}
	p.name = name
	return nil
}

// Status returns the connection status.
func (p *Player) Status() ConnectionStatus { return p.status }

// SetStatus updates the connection status.
func (p *Player) SetStatus(s ConnectionStatus) { p.status = s }

// Bonus returns the round-zero bonus resolution.
func (p *Player) Bonus() Bonus { return p.bonus }

// ResolveBonus records the round-zero outcome. It may only happen once.
func (p *Player) ResolveBonus(b Bonus) error {
	if p.bonus.State != BonusPending {
		return fmt.Errorf("%w: bonus already resolved for %s", ErrInvalidState, p.id)
	}
	p.bonus = b
	return nil
}

// Turn returns the live turn engine, or nil between turns.
func (p *Player) Turn() *TurnEngine { return p.turn }

// BeginTurn attaches a fresh engine. A player has at most one live turn.
func (p *Player) BeginTurn(e *TurnEngine) error {
	if p.turn != nil {
		return fmt.Errorf("%w: turn already active for %s", ErrInvalidState, p.id)
	}
	p.turn = e
	return nil
}

// EndTurn discards the live engine.
func (p *Player) EndTurn() { p.turn = nil }

// Tiles returns the owned tile stack, bottom first.
func (p *Player) Tiles() []*Tile { return p.tiles }

// TopTile returns the most recently claimed tile, or nil.
func (p *Player) TopTile() *Tile {
	if len(p.tiles) == 0 {
		return nil
	}
	return p.tiles[len(p.tiles)-1]
}

// AddTile pushes a claimed tile onto the stack.
func (p *Player) AddTile(t *Tile) error {
	if t == nil {
		return fmt.Errorf("%w: missing tile", ErrIllegalMove)
	}
	p.tiles = append(p.tiles, t)
	return nil
}

// RemoveTopTile pops and returns the top tile.
func (p *Player) RemoveTopTile() (*Tile, error) {
	if len(p.tiles) == 0 {
		return nil, fmt.Errorf("%w: no tiles owned", ErrInvalidState)
	}
	t := p.tiles[len(p.tiles)-1]
	p.tiles = p.tiles[:len(p.tiles)-1]
	return t, nil
}

// Points totals the owned tile points, doubling the single tile whose
// value equals the player's set bonus value.
func (p *Player) Points() int {
	total := 0
	for _, t := range p.tiles {
		pts := t.Points()
		if p.bonus.State == BonusSet && t.Value() == p.bonus.Value {
			pts *= 2
		}
		total += pts
	}
	return total
}
