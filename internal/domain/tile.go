package domain

import "fmt"

// Tile value bounds. A pot holds one tile per value in this range.
const (
	MinTileValue = 21
	MaxTileValue = 36
)

// Tile is a single claimable token. Its point value is derived from
// its face value at construction and never changes. A flipped tile is
// permanently out of play and never has an owner.
type Tile struct {
	value   int
	points  int
	ownerID string
	flipped bool
}

// NewTile builds a tile for the given value (21..36).
func NewTile(value int) (*Tile, error) {
	if value < MinTileValue || value > MaxTileValue {
		return nil, fmt.Errorf("%w: tile value %d out of range %d..%d", ErrIllegalMove, value, MinTileValue, MaxTileValue)
	}
	return &Tile{value: value, points: tilePoints(value)}, nil
}

// tilePoints maps a tile value to its point worth: one point per band
// of four values starting at 21.
func tilePoints(value int) int {
	switch {
	case value <= 24:
		return 1
	case value <= 28:
		return 2
	case value <= 32:
		return 3
	default:
		return 4
	}
}

// Value returns the tile's face value.
func (t *Tile) Value() int { return t.value }

// Points returns the tile's point worth.
func (t *Tile) Points() int { return t.points }

// OwnerID returns the owning player id, or "" when the tile is in the pot.
func (t *Tile) OwnerID() string { return t.ownerID }

// Flipped reports whether the tile is permanently out of play.
func (t *Tile) Flipped() bool { return t.flipped }

// Available reports whether the tile can currently be claimed from the pot.
func (t *Tile) Available() bool { return t.ownerID == "" && !t.flipped }

// Take assigns ownership to the given player.
func (t *Tile) Take(playerID string) error {
	if playerID == "" {
		return fmt.Errorf("%w: missing player id", ErrIllegalMove)
	}
	if t.flipped {
		return fmt.Errorf("%w: tile %d is flipped", ErrInvalidState, t.value)
	}
	t.ownerID = playerID
	return nil
}

// ReturnToPot clears ownership, making the tile claimable again unless
// it has been flipped.
func (t *Tile) ReturnToPot() {
	t.ownerID = ""
}

// Flip removes the tile from play permanently. Flipping an owned tile
// first returns it to the pot so the flipped-implies-unowned invariant
// holds. Flipping twice is a no-op.
func (t *Tile) Flip() {
	if t.flipped {
		return
	}
	t.ownerID = ""
	t.flipped = true
}
